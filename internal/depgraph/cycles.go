package depgraph

import (
	"fmt"
	"sort"

	"github2file/internal/artifact"
)

// DefaultCycleCap bounds elementary cycle enumeration.
const DefaultCycleCap = 1000

// GraphTooComplexWarning reports that cycle enumeration stopped at the cap. The
// cycles found so far are still returned.
type GraphTooComplexWarning struct {
	Cap        int
	Components int // strongly connected components with at least one cycle
}

func (w *GraphTooComplexWarning) Error() string {
	return fmt.Sprintf("graph too complex: stopped after %d cycles across %d cyclic components", w.Cap, w.Components)
}

// FindCycles enumerates every elementary cycle (Johnson's algorithm per strongly
// connected component), up to limit cycles. Each cycle starts at its lexically
// smallest path, so rotations are reported once. limit <= 0 uses DefaultCycleCap.
func FindCycles(g artifact.DependencyGraph, limit int) ([]artifact.Cycle, *GraphTooComplexWarning) {
	if limit <= 0 {
		limit = DefaultCycleCap
	}
	ix := index(g)

	var out [][]int64
	truncated := false
	for _, id := range ix.selfLoops {
		if len(out) >= limit {
			truncated = true
			break
		}
		out = append(out, []int64{id})
	}
	cyclic := len(ix.selfLoops)
	for _, ms := range components(ix) {
		if len(ms) < 2 {
			continue
		}
		cyclic++
		if truncated {
			continue
		}
		if len(out) >= limit {
			truncated = true
			continue
		}
		j := &johnson{ix: ix, limit: limit - len(out)}
		out = append(out, j.run(ms)...)
		truncated = j.truncated
	}

	sort.Slice(out, func(a, b int) bool {
		if len(out[a]) != len(out[b]) {
			return len(out[a]) < len(out[b])
		}
		for k := range out[a] {
			if out[a][k] != out[b][k] {
				return out[a][k] < out[b][k]
			}
		}
		return false
	})
	cycles := make([]artifact.Cycle, 0, len(out))
	for _, ids := range out {
		ps := make([]string, len(ids))
		for k, id := range ids {
			ps[k] = ix.paths[id]
		}
		cycles = append(cycles, artifact.Cycle{Paths: ps})
	}
	if len(cycles) == 0 {
		cycles = nil
	}
	if truncated {
		return cycles, &GraphTooComplexWarning{Cap: limit, Components: cyclic}
	}
	return cycles, nil
}

// johnson enumerates elementary cycles inside one strongly connected component.
type johnson struct {
	ix        *indexed
	limit     int
	truncated bool

	allowed map[int64]bool
	blocked map[int64]bool
	b       map[int64]map[int64]bool
	stack   []int64
	found   [][]int64
}

func (j *johnson) run(members []int64) [][]int64 {
	j.allowed = make(map[int64]bool, len(members))
	for _, id := range members {
		j.allowed[id] = true
	}
	// members are ascending, so each start is the smallest node of the cycles it finds
	for _, s := range members {
		if j.truncated {
			break
		}
		j.blocked = make(map[int64]bool)
		j.b = make(map[int64]map[int64]bool)
		j.circuit(s, s)
		delete(j.allowed, s)
	}
	return j.found
}

func (j *johnson) circuit(v, s int64) bool {
	if j.truncated {
		return false
	}
	closed := false
	j.stack = append(j.stack, v)
	j.blocked[v] = true
	for _, w := range j.ix.successors(v) {
		if !j.allowed[w] {
			continue
		}
		if w == s {
			if len(j.found) >= j.limit {
				j.truncated = true
				break
			}
			j.found = append(j.found, append([]int64(nil), j.stack...))
			closed = true
		} else if !j.blocked[w] && j.circuit(w, s) {
			closed = true
		}
		if j.truncated {
			break
		}
	}
	if closed {
		j.unblock(v)
	} else {
		for _, w := range j.ix.successors(v) {
			if !j.allowed[w] {
				continue
			}
			if j.b[w] == nil {
				j.b[w] = make(map[int64]bool)
			}
			j.b[w][v] = true
		}
	}
	j.stack = j.stack[:len(j.stack)-1]
	return closed
}

func (j *johnson) unblock(u int64) {
	j.blocked[u] = false
	for w := range j.b[u] {
		delete(j.b[u], w)
		if j.blocked[w] {
			j.unblock(w)
		}
	}
}
