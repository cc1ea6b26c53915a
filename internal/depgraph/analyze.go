package depgraph

import "github2file/internal/artifact"

type Options struct {
	CycleCap         int
	MaxCriticalPaths int
}

// Result bundles everything the analyzer derives from one graph.
type Result struct {
	Cycles        []artifact.Cycle
	CriticalPaths []artifact.CriticalPath
	// Order is dependency-first; see DependencyOrder.
	Order   []string
	Warning *GraphTooComplexWarning
}

// Analyze runs cycle detection and critical-path ranking over g.
func Analyze(g artifact.DependencyGraph, sizes map[string]int64, opts Options) Result {
	cycles, warn := FindCycles(g, opts.CycleCap)
	return Result{
		Cycles:        cycles,
		CriticalPaths: CriticalPaths(g, sizes, opts.MaxCriticalPaths),
		Order:         DependencyOrder(g),
		Warning:       warn,
	}
}
