package codebase

import (
	"path"
	"regexp"
	"strings"

	"github2file/internal/artifact"
)

// candidate is one path an import token may refer to.
type candidate struct {
	Path string
	// Dir marks package imports that refer to every file in a directory.
	Dir bool
	// Anchored candidates are only tried as exact paths (relative imports, links).
	Anchored bool
}

// Resolver turns a matched token into candidate paths. from is the importing file.
type Resolver func(token, from string) []candidate

// Rule is one (language, pattern, resolver) entry. Pattern's first submatch is the
// token; when Inner is set it is applied to that submatch to extract tokens.
type Rule struct {
	Language string
	Kind     artifact.EdgeKind
	Pattern  *regexp.Regexp
	Inner    *regexp.Regexp
	Resolve  Resolver
}

// DefaultRules covers the languages ingestion keeps.
var DefaultRules = []Rule{
	{Language: "python", Kind: artifact.EdgeImport, Pattern: regexp.MustCompile(`(?m)^[ \t]*import[ \t]+([\w\. \t,]+)`), Inner: regexp.MustCompile(`([\w\.]+)(?:[ \t]+as[ \t]+\w+)?`), Resolve: pythonModule},
	{Language: "python", Kind: artifact.EdgeImport, Pattern: regexp.MustCompile(`(?m)^[ \t]*from[ \t]+(\.*[\w\.]*[ \t]+import[ \t]+\(?[\w \t,]+)`), Resolve: pythonFrom},
	{Language: "go", Kind: artifact.EdgeImport, Pattern: regexp.MustCompile(`(?m)^[ \t]*import[ \t]+(?:[\w\.]+[ \t]+)?"([^"]+)"`), Resolve: goPackage},
	{Language: "go", Kind: artifact.EdgeImport, Pattern: regexp.MustCompile(`(?ms)^[ \t]*import[ \t]*\((.*?)\)`), Inner: regexp.MustCompile(`"([^"]+)"`), Resolve: goPackage},
	{Language: "javascript", Kind: artifact.EdgeImport, Pattern: regexp.MustCompile(`(?m)(?:import|export)[^'";]*?from[ \t]*['"]([^'"]+)['"]`), Resolve: jsModule},
	{Language: "javascript", Kind: artifact.EdgeImport, Pattern: regexp.MustCompile(`(?m)^[ \t]*import[ \t]*['"]([^'"]+)['"]`), Resolve: jsModule},
	{Language: "javascript", Kind: artifact.EdgeImport, Pattern: regexp.MustCompile(`(?:require|import)\(\s*['"]([^'"]+)['"]\s*\)`), Resolve: jsModule},
	{Language: "java", Kind: artifact.EdgeImport, Pattern: regexp.MustCompile(`(?m)^[ \t]*import[ \t]+(?:static[ \t]+)?([\w\.]+(?:\.\*)?)[ \t]*;`), Resolve: javaImport},
	{Language: "c", Kind: artifact.EdgeInclude, Pattern: regexp.MustCompile(`(?m)^[ \t]*#[ \t]*include[ \t]*["<]([^">]+)[">]`), Resolve: cInclude},
	{Language: "md", Kind: artifact.EdgeReference, Pattern: regexp.MustCompile(`\[[^\]]*\]\(([^)\s#?]+)`), Resolve: relativeLink},
}

func dirOf(p string) string {
	d := path.Dir(p)
	if d == "." {
		return ""
	}
	return d
}

func joinRel(dir, rel string) string {
	return artifact.CleanPath(path.Join(dir, rel))
}

// pythonModule maps "pkg.mod" (or ".mod" relative) to module and package files.
func pythonModule(token, from string) []candidate {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	dots := len(token) - len(strings.TrimLeft(token, "."))
	rest := strings.ReplaceAll(token[dots:], ".", "/")
	if dots > 0 {
		dir := dirOf(from)
		for i := 1; i < dots; i++ {
			dir = dirOf(dir)
		}
		if rest == "" {
			return []candidate{{Path: joinRel(dir, "__init__.py"), Anchored: true}}
		}
		return []candidate{
			{Path: joinRel(dir, rest+".py"), Anchored: true},
			{Path: joinRel(dir, rest+"/__init__.py"), Anchored: true},
		}
	}
	return []candidate{
		{Path: rest + ".py"},
		{Path: rest + "/__init__.py"},
	}
}

var reFromImport = regexp.MustCompile(`[ \t]+import[ \t]+`)

// pythonFrom handles "from X import a, b": each name may be a submodule of X.
func pythonFrom(token, from string) []candidate {
	parts := reFromImport.Split(token, 2)
	if len(parts) != 2 {
		return nil
	}
	mod := strings.TrimSpace(parts[0])
	var out []candidate
	for _, name := range strings.Split(strings.Trim(parts[1], "( \t"), ",") {
		name = strings.TrimSpace(strings.SplitN(strings.TrimSpace(name), " ", 2)[0])
		if name == "" || name == "*" {
			continue
		}
		sub := mod + "." + name
		if strings.HasSuffix(mod, ".") {
			sub = mod + name
		}
		out = append(out, pythonModule(sub, from)...)
	}
	if strings.Trim(mod, ".") != "" || len(out) == 0 {
		out = append(out, pythonModule(mod, from)...)
	}
	return out
}

func goPackage(token, _ string) []candidate {
	token = strings.TrimSpace(token)
	if token == "" || token == "C" {
		return nil
	}
	return []candidate{{Path: token, Dir: true}}
}

var jsExts = []string{"", ".ts", ".tsx", ".js", ".jsx", "/index.ts", "/index.tsx", "/index.js", "/index.jsx"}

func jsModule(token, from string) []candidate {
	var out []candidate
	anchored := strings.HasPrefix(token, "./") || strings.HasPrefix(token, "../")
	base := token
	if anchored {
		base = joinRel(dirOf(from), token)
	} else {
		base = strings.TrimPrefix(strings.TrimPrefix(token, "@/"), "~/")
	}
	for _, ext := range jsExts {
		out = append(out, candidate{Path: base + ext, Anchored: anchored})
	}
	return out
}

func javaImport(token, _ string) []candidate {
	if strings.HasSuffix(token, ".*") {
		return []candidate{{Path: strings.ReplaceAll(strings.TrimSuffix(token, ".*"), ".", "/"), Dir: true}}
	}
	p := strings.ReplaceAll(token, ".", "/")
	out := []candidate{{Path: p + ".java"}}
	// static imports name a member: try the enclosing class too
	if i := strings.LastIndex(p, "/"); i > 0 {
		out = append(out, candidate{Path: p[:i] + ".java"})
	}
	return out
}

func cInclude(token, from string) []candidate {
	return []candidate{
		{Path: joinRel(dirOf(from), token), Anchored: true},
		{Path: artifact.CleanPath(token)},
	}
}

func relativeLink(token, from string) []candidate {
	if strings.Contains(token, "://") || strings.HasPrefix(token, "mailto:") {
		return nil
	}
	if strings.HasPrefix(token, "/") {
		return []candidate{{Path: artifact.CleanPath(token), Anchored: true}}
	}
	return []candidate{{Path: joinRel(dirOf(from), token), Anchored: true}}
}
