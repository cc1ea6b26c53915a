package scan

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

const LanguageBinary = "binary"

var languageExtensions = map[string][]string{
	"python":     {".py", ".pyw"},
	"go":         {".go"},
	"javascript": {".js", ".jsx", ".ts", ".tsx"},
	"java":       {".java"},
	"c":          {".c", ".h", ".cc", ".cpp", ".hpp"},
	"md":         {".md"},
}

// Languages returns the supported language names, sorted.
func Languages() []string {
	out := make([]string, 0, len(languageExtensions))
	for k := range languageExtensions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Extensions returns the file extensions for lang.
func Extensions(lang string) ([]string, error) {
	exts, ok := languageExtensions[strings.ToLower(strings.TrimSpace(lang))]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q (supported: %s)", lang, strings.Join(Languages(), ", "))
	}
	return exts, nil
}

// DetectLanguage maps a path to a language by extension. README files without
// an extension count as markdown.
func DetectLanguage(p string) string {
	ext := strings.ToLower(path.Ext(p))
	for lang, exts := range languageExtensions {
		for _, e := range exts {
			if e == ext {
				return lang
			}
		}
	}
	if isReadme(p) {
		return "md"
	}
	return ""
}

func isReadme(p string) bool {
	base := path.Base(p)
	return base == "README.md" || base == "README"
}

// cLike reports whether the language uses // and /* */ comments.
func cLike(lang string) bool {
	switch lang {
	case "go", "javascript", "java", "c":
		return true
	}
	return false
}
