package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github2file/internal/artifact"
	"github2file/internal/depgraph"
)

// Assembly is everything the earlier stages produced for one run.
type Assembly struct {
	Metadata artifact.RepositoryMetadata
	Files    []artifact.FileRecord
	Graph    artifact.DependencyGraph
	Analysis depgraph.Result
	Plan     artifact.AnalysisPlan
	Entries  []artifact.CompressionEntry
	Warnings []string
}

const reasonMissingEntry = "no compression result"

// Assemble merges the stage outputs into the artifact. Entries come out in file
// order whatever order they completed in; the recovery guide lists
// dependencies before their dependents. Kept files carry their content;
// files whose compression failed carry their content too and are listed as
// verbatim fallbacks, so nothing planned for the artifact is dropped.
func Assemble(in Assembly) *artifact.Artifact {
	order := make(map[string]int, len(in.Files))
	meta := in.Metadata
	meta.FileCount = len(in.Files)
	meta.TotalBytes = 0
	for i, f := range in.Files {
		order[f.Path] = i
		meta.TotalBytes += f.Size
	}

	entries := append([]artifact.CompressionEntry(nil), in.Entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		return order[entries[i].Path] < order[entries[j].Path]
	})
	byPath := make(map[string]artifact.CompressionEntry, len(entries))
	for _, e := range entries {
		byPath[e.Path] = e
	}

	users := in.Graph.Incoming()
	a := &artifact.Artifact{
		SchemaVersion:      artifact.SchemaVersion,
		Metadata:           meta,
		Graph:              in.Graph,
		CriticalPaths:      in.Analysis.CriticalPaths,
		Cycles:             in.Analysis.Cycles,
		Plan:               in.Plan,
		CompressionEntries: entries,
	}
	var guide []string
	for _, f := range in.Files {
		switch in.Plan[f.Path].Disposition {
		case artifact.DispositionKeep:
			a.PreservedContent = append(a.PreservedContent, artifact.NewPreservedFile(f.Path, artifact.PreservedKept, f.Content))
		case artifact.DispositionCompress:
			e, ok := byPath[f.Path]
			if ok && e.Status == artifact.StatusDone {
				guide = append(guide, f.Path)
				continue
			}
			reason := reasonMissingEntry
			if ok && e.Error != "" {
				reason = e.Error
			}
			a.PreservedContent = append(a.PreservedContent, artifact.NewPreservedFile(f.Path, artifact.PreservedCompressionFailed, f.Content))
			a.VerbatimFallbacks = append(a.VerbatimFallbacks, artifact.Fallback{Path: f.Path, Reason: reason})
		}
	}

	for _, p := range guideOrder(guide, in.Analysis.Order) {
		a.RecoveryGuide = append(a.RecoveryGuide, recoveryStep(p, byPath[p].RecreationPrompt, users[p]))
	}

	if w := in.Analysis.Warning; w != nil {
		a.Warnings = append(a.Warnings, w.Error())
	}
	a.Warnings = append(a.Warnings, in.Warnings...)
	return a
}

// guideOrder puts paths in dependency order, dependencies first. Paths the
// order does not mention follow in their original order.
func guideOrder(paths, depOrder []string) []string {
	rank := make(map[string]int, len(depOrder))
	for i, p := range depOrder {
		rank[p] = i
	}
	pos := func(p string) int {
		if r, ok := rank[p]; ok {
			return r
		}
		return len(depOrder)
	}
	out := append([]string(nil), paths...)
	sort.SliceStable(out, func(i, j int) bool { return pos(out[i]) < pos(out[j]) })
	return out
}

func recoveryStep(path, prompt string, dependents []string) string {
	deps := "none"
	if len(dependents) > 0 {
		deps = strings.Join(dependents, ", ")
	}
	return fmt.Sprintf("to recreate `%s`, use prompt `%s`; verify by checking conformance with dependents `%s`.", path, prompt, deps)
}
