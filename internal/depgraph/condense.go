// Package depgraph analyzes a dependency graph: elementary cycles, critical
// paths over the condensation, and a dependency-first file order. Every
// function here is pure.
package depgraph

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github2file/internal/artifact"
)

// indexed is the graph with paths mapped to dense IDs in lexical order.
type indexed struct {
	paths []string
	ids   map[string]int64
	g     *simple.DirectedGraph
	// selfLoops holds nodes with a self edge; simple graphs cannot store them.
	selfLoops []int64
}

func index(dg artifact.DependencyGraph) *indexed {
	set := make(map[string]struct{}, len(dg.Nodes))
	for _, n := range dg.Nodes {
		set[n] = struct{}{}
	}
	for _, e := range dg.Edges {
		set[e.From] = struct{}{}
		set[e.To] = struct{}{}
	}
	ix := &indexed{ids: make(map[string]int64, len(set)), g: simple.NewDirectedGraph()}
	for p := range set {
		ix.paths = append(ix.paths, p)
	}
	sort.Strings(ix.paths)
	for i, p := range ix.paths {
		ix.ids[p] = int64(i)
		ix.g.AddNode(simple.Node(i))
	}
	for _, e := range dg.Edges {
		f, t := ix.ids[e.From], ix.ids[e.To]
		if f == t {
			if n := len(ix.selfLoops); n == 0 || ix.selfLoops[n-1] != f {
				ix.selfLoops = append(ix.selfLoops, f)
			}
			continue
		}
		ix.g.SetEdge(ix.g.NewEdge(simple.Node(f), simple.Node(t)))
	}
	return ix
}

// successors returns the sorted IDs reachable in one step from id.
func (ix *indexed) successors(id int64) []int64 {
	out := nodeIDs(graph.NodesOf(ix.g.From(id)))
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// condensation collapses each strongly connected component into one node.
type condensation struct {
	// members[c] lists node IDs of component c, ascending.
	members [][]int64
	comp    []int // node ID -> component
	dag     *simple.DirectedGraph
	// order is a topological order of components (dependents before dependencies).
	order []int64
}

// components returns the strongly connected components, each sorted, ordered by
// their smallest member.
func components(ix *indexed) [][]int64 {
	sccs := topo.TarjanSCC(ix.g)
	members := make([][]int64, 0, len(sccs))
	for _, scc := range sccs {
		ids := nodeIDs(scc)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		members = append(members, ids)
	}
	sort.Slice(members, func(i, j int) bool { return members[i][0] < members[j][0] })
	return members
}

func condense(ix *indexed) (*condensation, error) {
	members := components(ix)
	c := &condensation{members: members, comp: make([]int, len(ix.paths)), dag: simple.NewDirectedGraph()}
	for ci, ms := range members {
		c.dag.AddNode(simple.Node(ci))
		for _, id := range ms {
			c.comp[id] = ci
		}
	}
	for id := range ix.paths {
		for _, to := range ix.successors(int64(id)) {
			a, b := c.comp[id], c.comp[to]
			if a != b && !c.dag.HasEdgeFromTo(int64(a), int64(b)) {
				c.dag.SetEdge(c.dag.NewEdge(simple.Node(a), simple.Node(b)))
			}
		}
	}
	sorted, err := topo.SortStabilized(c.dag, func(ns []graph.Node) {
		sort.Slice(ns, func(i, j int) bool { return ns[i].ID() < ns[j].ID() })
	})
	if err != nil {
		return nil, err
	}
	c.order = nodeIDs(sorted)
	return c, nil
}

func (c *condensation) successors(ci int64) []int64 {
	out := nodeIDs(graph.NodesOf(c.dag.From(ci)))
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func nodeIDs(ns []graph.Node) []int64 {
	out := make([]int64, len(ns))
	for i, n := range ns {
		out[i] = n.ID()
	}
	return out
}
