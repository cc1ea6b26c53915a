package depgraph

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github2file/internal/artifact"
)

func graphOf(nodes []string, pairs ...[2]string) artifact.DependencyGraph {
	edges := make([]artifact.DependencyEdge, 0, len(pairs))
	for _, p := range pairs {
		edges = append(edges, artifact.DependencyEdge{From: p[0], To: p[1], Kind: artifact.EdgeImport})
	}
	return artifact.DependencyGraph{Nodes: nodes, Edges: artifact.SortEdges(edges)}
}

func TestChainScenario(t *testing.T) {
	g := graphOf([]string{"a.py", "b.py", "c.py"}, [2]string{"a.py", "b.py"}, [2]string{"b.py", "c.py"})

	cycles, warn := FindCycles(g, 0)
	assert.Nil(t, warn)
	assert.Empty(t, cycles)

	paths := CriticalPaths(g, nil, 0)
	require.Len(t, paths, 1)
	assert.Equal(t, []string{"a.py", "b.py", "c.py"}, paths[0].Paths)
	assert.Equal(t, 2, paths[0].Length)

	assert.Equal(t, []string{"c.py", "b.py", "a.py"}, DependencyOrder(g))
}

func TestTwoCycleScenario(t *testing.T) {
	g := graphOf([]string{"a.py", "b.py"}, [2]string{"a.py", "b.py"}, [2]string{"b.py", "a.py"})
	cycles, warn := FindCycles(g, 0)
	assert.Nil(t, warn)
	assert.Equal(t, []artifact.Cycle{{Paths: []string{"a.py", "b.py"}}}, cycles)
}

func TestCycleReportedOnceRegardlessOfStart(t *testing.T) {
	for _, names := range [][3]string{{"a", "b", "c"}, {"c", "a", "b"}, {"b", "c", "a"}} {
		g := graphOf([]string{"a", "b", "c"},
			[2]string{names[0], names[1]}, [2]string{names[1], names[2]}, [2]string{names[2], names[0]})
		cycles, _ := FindCycles(g, 0)
		require.Len(t, cycles, 1, "%v", names)
		assert.Equal(t, "a", cycles[0].Paths[0])
		assert.Len(t, cycles[0].Paths, 3)
	}
}

func complete(n int) artifact.DependencyGraph {
	var nodes []string
	for i := 0; i < n; i++ {
		nodes = append(nodes, fmt.Sprintf("n%d", i))
	}
	var pairs [][2]string
	for _, a := range nodes {
		for _, b := range nodes {
			if a != b {
				pairs = append(pairs, [2]string{a, b})
			}
		}
	}
	return graphOf(nodes, pairs...)
}

func TestElementaryCyclesOfCompleteGraph(t *testing.T) {
	cycles, warn := FindCycles(complete(3), 0)
	assert.Nil(t, warn)
	assert.Len(t, cycles, 5)
	assert.Equal(t, []string{"n0", "n1"}, cycles[0].Paths)

	cycles, warn = FindCycles(complete(4), 0)
	assert.Nil(t, warn)
	assert.Len(t, cycles, 20)
}

func TestCycleCapProducesWarning(t *testing.T) {
	cycles, warn := FindCycles(complete(4), 5)
	require.NotNil(t, warn)
	assert.Equal(t, 5, warn.Cap)
	assert.Equal(t, 1, warn.Components)
	assert.Len(t, cycles, 5)
	assert.Contains(t, warn.Error(), "too complex")

	cycles, warn = FindCycles(complete(4), 20)
	assert.Nil(t, warn)
	assert.Len(t, cycles, 20)
}

func TestCriticalPathCollapsesCycles(t *testing.T) {
	g := graphOf([]string{"a", "b", "c", "d"},
		[2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"c", "b"}, [2]string{"c", "d"})
	paths := CriticalPaths(g, nil, 0)
	require.NotEmpty(t, paths)
	assert.Equal(t, []string{"a", "b", "c", "d"}, paths[0].Paths)
	assert.Equal(t, 2, paths[0].Length)

	order := DependencyOrder(g)
	assert.Equal(t, []string{"d", "b", "c", "a"}, order)
}

func TestCriticalPathTieBreaks(t *testing.T) {
	g := graphOf([]string{"a", "b", "c", "d", "e", "f"},
		[2]string{"a", "b"}, [2]string{"c", "d"}, [2]string{"e", "f"})
	sizes := map[string]int64{"a": 1, "b": 1, "c": 5, "d": 5, "e": 1, "f": 1}

	paths := CriticalPaths(g, sizes, 0)
	require.Len(t, paths, 3)
	assert.Equal(t, []string{"c", "d"}, paths[0].Paths)
	assert.Equal(t, int64(10), paths[0].TotalBytes)
	assert.Equal(t, []string{"a", "b"}, paths[1].Paths)
	assert.Equal(t, []string{"e", "f"}, paths[2].Paths)

	assert.Len(t, CriticalPaths(g, sizes, 1), 1)
}

func TestCriticalPathSkipsShorterChains(t *testing.T) {
	g := graphOf([]string{"a", "b", "c", "d", "e"},
		[2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"d", "e"})
	sizes := map[string]int64{"d": 100, "e": 100}

	paths := CriticalPaths(g, sizes, 0)
	require.Len(t, paths, 1)
	assert.Equal(t, []string{"a", "b", "c"}, paths[0].Paths)
	assert.Equal(t, 2, paths[0].Length)
}

func TestCriticalPathWithoutEdges(t *testing.T) {
	g := graphOf([]string{"a", "b"})
	paths := CriticalPaths(g, map[string]int64{"b": 9}, 0)
	require.Len(t, paths, 1)
	assert.Equal(t, artifact.CriticalPath{Length: 0, TotalBytes: 9, Paths: []string{"b"}}, paths[0])

	assert.Nil(t, CriticalPaths(artifact.DependencyGraph{}, nil, 0))
}

// longest path by brute force over a DAG given as adjacency on ints.
func bruteLongest(n int, adj map[int][]int) int {
	memo := make(map[int]int)
	var f func(int) int
	f = func(u int) int {
		if v, ok := memo[u]; ok {
			return v
		}
		best := 0
		for _, v := range adj[u] {
			if l := 1 + f(v); l > best {
				best = l
			}
		}
		memo[u] = best
		return best
	}
	out := 0
	for u := 0; u < n; u++ {
		if l := f(u); l > out {
			out = l
		}
	}
	return out
}

func TestCriticalPathMatchesLongestPathOnRandomDAGs(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := 2 + r.Intn(12)
		var nodes []string
		for i := 0; i < n; i++ {
			nodes = append(nodes, fmt.Sprintf("f%02d", i))
		}
		adj := make(map[int][]int)
		var pairs [][2]string
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if r.Intn(3) == 0 {
					adj[i] = append(adj[i], j)
					pairs = append(pairs, [2]string{nodes[i], nodes[j]})
				}
			}
		}
		g := graphOf(nodes, pairs...)
		want := bruteLongest(n, adj)

		first := CriticalPaths(g, nil, 0)
		require.NotEmpty(t, first)
		assert.Equal(t, want, first[0].Length, "trial %d", trial)
		assert.Len(t, first[0].Paths, want+1)
		assert.Equal(t, first, CriticalPaths(g, nil, 0))

		cycles, _ := FindCycles(g, 0)
		assert.Empty(t, cycles)
	}
}

func TestAnalyze(t *testing.T) {
	g := graphOf([]string{"a", "b"}, [2]string{"a", "b"}, [2]string{"b", "a"})
	res := Analyze(g, nil, Options{})
	assert.Len(t, res.Cycles, 1)
	assert.Nil(t, res.Warning)
	require.Len(t, res.CriticalPaths, 1)
	assert.Equal(t, []string{"a", "b"}, res.CriticalPaths[0].Paths)
	assert.Equal(t, 0, res.CriticalPaths[0].Length)
	assert.Equal(t, []string{"a", "b"}, res.Order)
}
