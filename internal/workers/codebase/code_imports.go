package codebase

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github2file/internal/artifact"
)

// DefaultSourceRoots are tried as prefixes when an import is not repo-relative.
var DefaultSourceRoots = []string{"src", "lib", "pkg", "internal", "app", "src/main/java"}

// CodeImports builds the dependency graph from import/include/link syntax.
// It makes no network or model calls and returns the same graph for the same input.
type CodeImports struct {
	Rules       []Rule
	SourceRoots []string
	Logger      logrus.FieldLogger
}

// Run scans every text file with the rules for its language and resolves tokens
// to files in the set. Unresolvable references are dropped.
func (c CodeImports) Run(ctx context.Context, files []artifact.FileRecord) (artifact.DependencyGraph, error) {
	log := c.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	rules := c.Rules
	if rules == nil {
		rules = DefaultRules
	}
	roots := c.SourceRoots
	if roots == nil {
		roots = DefaultSourceRoots
	}
	byLang := make(map[string][]Rule)
	for _, r := range rules {
		byLang[r.Language] = append(byLang[r.Language], r)
	}

	idx := newFileIndex(files, roots)
	g := artifact.DependencyGraph{Nodes: make([]string, 0, len(files))}
	var edges []artifact.DependencyEdge
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return artifact.DependencyGraph{}, err
		}
		g.Nodes = append(g.Nodes, f.Path)
		if f.Binary {
			continue
		}
		text := f.Text()
		found := 0
		for _, rule := range byLang[f.Language] {
			for _, tok := range extractTokens(rule, text) {
				for _, to := range idx.resolve(rule.Resolve(tok, f.Path), f.Path) {
					edges = append(edges, artifact.DependencyEdge{From: f.Path, To: to, Kind: rule.Kind})
					found++
				}
			}
		}
		log.WithFields(logrus.Fields{"path": f.Path, "deps": found}).Trace("codeImports: scanned file")
	}
	g.Edges = artifact.SortEdges(edges)
	sort.Strings(g.Nodes)
	log.WithFields(logrus.Fields{"nodes": len(g.Nodes), "edges": len(g.Edges)}).Info("codeImports: dependency graph built")
	return g, nil
}

func extractTokens(rule Rule, text string) []string {
	var out []string
	for _, m := range rule.Pattern.FindAllStringSubmatch(text, -1) {
		if len(m) < 2 || m[1] == "" {
			continue
		}
		if rule.Inner == nil {
			out = append(out, m[1])
			continue
		}
		for _, im := range rule.Inner.FindAllStringSubmatch(m[1], -1) {
			if len(im) > 1 && im[1] != "" {
				out = append(out, im[1])
			}
		}
	}
	return out
}

// fileIndex answers "which files could this candidate be" in three passes:
// exact path, source-root prefix, then name heuristics.
type fileIndex struct {
	files map[string]bool
	dirs  map[string][]string // dir -> files directly inside, sorted
	roots []string
	// filename token -> paths; see buildFilenameIndex
	byName map[string]map[string]struct{}
}

func newFileIndex(files []artifact.FileRecord, roots []string) *fileIndex {
	idx := &fileIndex{
		files: make(map[string]bool, len(files)),
		dirs:  make(map[string][]string),
		roots: roots,
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		idx.files[f.Path] = true
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)
	for _, p := range paths {
		d := dirOf(p)
		idx.dirs[d] = append(idx.dirs[d], p)
	}
	idx.byName = buildFilenameIndex(paths)
	return idx
}

func (ix *fileIndex) resolve(cands []candidate, from string) []string {
	passes := []func(candidate, string) []string{ix.exact, ix.underRoots, ix.heuristic}
	for i, pass := range passes {
		var hits []string
		for _, c := range cands {
			if c.Path == "" || (i > 0 && c.Anchored) {
				continue
			}
			hits = append(hits, pass(c, from)...)
		}
		if hits = without(uniqueSorted(hits), from); len(hits) > 0 {
			return hits
		}
	}
	return nil
}

func (ix *fileIndex) lookup(p string, dir bool) []string {
	if dir {
		return ix.dirs[p]
	}
	if ix.files[p] {
		return []string{p}
	}
	return nil
}

func (ix *fileIndex) exact(c candidate, _ string) []string { return ix.lookup(c.Path, c.Dir) }

func (ix *fileIndex) underRoots(c candidate, _ string) []string {
	var out []string
	for _, r := range ix.roots {
		out = append(out, ix.lookup(path.Join(r, c.Path), c.Dir)...)
	}
	return out
}

// heuristic matches by path suffix (module paths whose tail is an in-repo dir or
// file), then falls back to the filename index on the last segment. Ambiguous
// file matches collapse to the one closest to from.
func (ix *fileIndex) heuristic(c candidate, from string) []string {
	if c.Dir {
		best := ""
		for d := range ix.dirs {
			if d == "" {
				continue
			}
			if (c.Path == d || strings.HasSuffix(c.Path, "/"+d)) && len(d) > len(best) {
				best = d
			}
		}
		if best == "" {
			return nil
		}
		return ix.dirs[best]
	}
	var out []string
	for p := range ix.files {
		if strings.HasSuffix(p, "/"+c.Path) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		base := path.Base(c.Path)
		if base == "__init__.py" || strings.HasPrefix(base, "index.") {
			return nil
		}
		for p := range ix.byName[strings.ToLower(base)] {
			out = append(out, p)
		}
	}
	if len(out) > 1 {
		out = closest(out, from)
	}
	return out
}

// closest keeps the candidate sharing the longest directory prefix with from,
// breaking ties lexically, so ambiguous heuristics still give one stable answer.
func closest(paths []string, from string) []string {
	sort.Strings(paths)
	best, bestScore := "", -1
	fromParts := strings.Split(dirOf(from), "/")
	for _, p := range paths {
		parts := strings.Split(dirOf(p), "/")
		score := 0
		for score < len(parts) && score < len(fromParts) && parts[score] == fromParts[score] {
			score++
		}
		if score > bestScore {
			best, bestScore = p, score
		}
	}
	return []string{best}
}

// buildFilenameIndex maps a lowercased basename to the paths carrying it.
// Example for "src/foo.bar.ts": "foo.bar.ts".
func buildFilenameIndex(paths []string) map[string]map[string]struct{} {
	idx := make(map[string]map[string]struct{})
	for _, p := range paths {
		token := strings.ToLower(path.Base(p))
		m := idx[token]
		if m == nil {
			m = make(map[string]struct{})
			idx[token] = m
		}
		m[p] = struct{}{}
	}
	return idx
}

func uniqueSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	sort.Strings(in)
	out := in[:1]
	for _, s := range in[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}

func without(in []string, drop string) []string {
	out := in[:0]
	for _, s := range in {
		if s != drop {
			out = append(out, s)
		}
	}
	return out
}
