package artifact

import "sort"

type EdgeKind string

const (
	EdgeImport    EdgeKind = "import"
	EdgeInclude   EdgeKind = "include"
	EdgeReference EdgeKind = "reference"
)

// DependencyEdge means From needs To.
type DependencyEdge struct {
	From string   `json:"from" xml:"from,attr"`
	To   string   `json:"to" xml:"to,attr"`
	Kind EdgeKind `json:"kind" xml:"kind,attr"`
}

// DependencyGraph holds every file path as a node and the sorted, deduplicated edge list.
type DependencyGraph struct {
	Nodes []string         `json:"nodes,omitempty" xml:"nodes>node,omitempty"`
	Edges []DependencyEdge `json:"edges,omitempty" xml:"edges>edge,omitempty"`
}

// SortEdges orders edges by (From, To, Kind) and drops duplicates and self-edges.
func SortEdges(edges []DependencyEdge) []DependencyEdge {
	if len(edges) == 0 {
		return nil
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})
	out := edges[:0]
	for i, e := range edges {
		if e.From == e.To {
			continue
		}
		if i > 0 && len(out) > 0 && out[len(out)-1] == e {
			continue
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Outgoing maps each node to the sorted set of nodes it depends on.
// Parallel edges of different kinds collapse to one target.
func (g DependencyGraph) Outgoing() map[string][]string {
	out := make(map[string][]string, len(g.Nodes))
	for _, n := range g.Nodes {
		out[n] = nil
	}
	for _, e := range g.Edges {
		ts := out[e.From]
		if len(ts) > 0 && ts[len(ts)-1] == e.To {
			continue
		}
		out[e.From] = append(ts, e.To)
	}
	return out
}

// Incoming maps each node to the sorted set of nodes that depend on it.
func (g DependencyGraph) Incoming() map[string][]string {
	in := make(map[string][]string, len(g.Nodes))
	for _, n := range g.Nodes {
		in[n] = nil
	}
	seen := make(map[[2]string]bool, len(g.Edges))
	for _, e := range g.Edges {
		k := [2]string{e.To, e.From}
		if seen[k] {
			continue
		}
		seen[k] = true
		in[e.To] = append(in[e.To], e.From)
	}
	for k := range in {
		sort.Strings(in[k])
	}
	return in
}

// CriticalPath is one longest dependency chain. Length counts edges.
type CriticalPath struct {
	Length     int      `json:"length" xml:"length,attr"`
	TotalBytes int64    `json:"total_bytes" xml:"total_bytes,attr"`
	Paths      []string `json:"paths,omitempty" xml:"paths>path,omitempty"`
}

// Cycle lists the members of one elementary cycle, starting at the lexically
// smallest path and following edge direction.
type Cycle struct {
	Paths []string `json:"paths,omitempty" xml:"paths>path,omitempty"`
}
