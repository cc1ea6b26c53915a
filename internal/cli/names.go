package cli

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// RepoName is the last path element of a repository URL or directory, without
// a trailing .git.
func RepoName(target string) string {
	target = strings.TrimSpace(target)
	name := ""
	if u, err := url.Parse(target); err == nil && u.Scheme != "" && u.Host != "" {
		name = path.Base(strings.TrimSuffix(u.Path, "/"))
	} else if abs, err := filepath.Abs(target); err == nil {
		name = filepath.Base(abs)
	}
	name = strings.TrimSuffix(name, ".git")
	if name == "" || name == "." || name == "/" {
		return "repo"
	}
	return name
}

func langPart(lang string) string {
	if lang == "" {
		return "all"
	}
	return lang
}

// ArtifactName is the default artifact file name, <repo>_<lang>_llm.<ext>.
func ArtifactName(repo, lang, ext string) string {
	return repo + "_" + langPart(lang) + "_llm." + ext
}

// DumpName is the default text dump name, <repo>_<lang>.txt or
// <repo>_<lang>-claude.txt.
func DumpName(repo, lang string, claude bool) string {
	if claude {
		return repo + "_" + langPart(lang) + "-claude.txt"
	}
	return repo + "_" + langPart(lang) + ".txt"
}

// SplitOutput splits an --output value into the directory the file store is
// rooted at and the file name. An empty value uses dir/name.
func SplitOutput(output, dir, name string) (string, string) {
	if output == "" {
		return dir, name
	}
	if strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(filepath.Separator)) {
		return filepath.Clean(output), name
	}
	return filepath.Dir(output), filepath.Base(output)
}
