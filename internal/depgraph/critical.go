package depgraph

import (
	"sort"

	"github2file/internal/artifact"
)

// DefaultMaxCriticalPaths is how many chains CriticalPaths reports by default.
const DefaultMaxCriticalPaths = 5

type chain struct {
	length int // condensation edges
	bytes  int64
	seq    []string
}

// better ranks by edge count, then total bytes (descending), then lexical path order.
func better(a, b chain) bool {
	if a.length != b.length {
		return a.length > b.length
	}
	if a.bytes != b.bytes {
		return a.bytes > b.bytes
	}
	for i := 0; i < len(a.seq) && i < len(b.seq); i++ {
		if a.seq[i] != b.seq[i] {
			return a.seq[i] < b.seq[i]
		}
	}
	return len(a.seq) < len(b.seq)
}

// CriticalPaths computes longest dependency chains on the condensation of g, so
// cycles count as one step and their members appear together in lexical order.
// One chain is ranked per source component (nothing depends on it). Only chains
// as long as the longest are reported, at most k of them.
// sizes gives per-path byte counts for tie-breaking.
func CriticalPaths(g artifact.DependencyGraph, sizes map[string]int64, k int) []artifact.CriticalPath {
	if k <= 0 {
		k = DefaultMaxCriticalPaths
	}
	ix := index(g)
	if len(ix.paths) == 0 {
		return nil
	}
	c, err := condense(ix)
	if err != nil {
		return nil
	}

	compSeq := make([][]string, len(c.members))
	compBytes := make([]int64, len(c.members))
	for ci, ms := range c.members {
		for _, id := range ms {
			p := ix.paths[id]
			compSeq[ci] = append(compSeq[ci], p)
			compBytes[ci] += sizes[p]
		}
	}

	best := make([]chain, len(c.members))
	for i := len(c.order) - 1; i >= 0; i-- {
		ci := c.order[i]
		cur := chain{bytes: compBytes[ci], seq: compSeq[ci]}
		var pick *chain
		for _, d := range c.successors(ci) {
			if pick == nil || better(best[d], *pick) {
				pick = &best[d]
			}
		}
		if pick != nil {
			cur.length = pick.length + 1
			cur.bytes += pick.bytes
			cur.seq = append(append(make([]string, 0, len(compSeq[ci])+len(pick.seq)), compSeq[ci]...), pick.seq...)
		}
		best[ci] = cur
	}

	var cands []chain
	for ci := range c.members {
		if c.dag.To(int64(ci)).Len() == 0 {
			cands = append(cands, best[ci])
		}
	}
	sort.Slice(cands, func(i, j int) bool { return better(cands[i], cands[j]) })
	if len(cands) == 0 {
		return nil
	}
	if cands[0].length == 0 {
		// no edges at all: the heaviest single file is the whole answer
		cands = cands[:1]
	}

	var out []artifact.CriticalPath
	for _, ch := range cands {
		if len(out) == k || ch.length < cands[0].length {
			break
		}
		out = append(out, artifact.CriticalPath{Length: ch.length, TotalBytes: ch.bytes, Paths: ch.seq})
	}
	return out
}

// DependencyOrder lists every path so that dependencies come before the files
// that need them. Members of a cycle are adjacent and lexically ordered.
func DependencyOrder(g artifact.DependencyGraph) []string {
	ix := index(g)
	c, err := condense(ix)
	if err != nil {
		return append([]string(nil), ix.paths...)
	}
	out := make([]string, 0, len(ix.paths))
	for i := len(c.order) - 1; i >= 0; i-- {
		for _, id := range c.members[c.order[i]] {
			out = append(out, ix.paths[id])
		}
	}
	return out
}
