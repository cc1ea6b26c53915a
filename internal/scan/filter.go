package scan

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

var (
	excludedDirs  = []string{"examples", "tests", "test", "scripts", "utils", "benchmarks"}
	workflowFiles = []string{".github", ".gitlab-ci.yml", ".gitignore", "LICENSE", "README"}

	langExcludedDirs = map[string][]string{
		"python": {"__pycache__"},
		"go":     {"vendor"},
	}
	langConfigFiles = map[string][]string{
		"python": {"hubconf.py", "setup.py"},
		"go":     {"go.mod", "go.sum", "Makefile"},
	}
	langWorkflowFiles = map[string][]string{
		"python": {"stale.py", "gen-card-", "write_model_card"},
	}

	testIndicators = map[string][]string{
		"python":     {"import unittest", "import pytest", "from unittest", "from pytest"},
		"go":         {"import testing", "\"testing\"", "func Test"},
		"javascript": {"from 'vitest'", "from \"vitest\"", "@jest/globals", "require('jest')"},
		"java":       {"import org.junit", "@Test"},
	}
)

// LikelyUseful drops hidden paths, test paths, tooling dirs and config files.
func LikelyUseful(p, lang string) bool {
	if excludedPath(p, lang) || strings.Contains(strings.ToLower(p), "test") {
		return false
	}
	for _, f := range langConfigFiles[lang] {
		if strings.Contains(p, f) {
			return false
		}
	}
	docs := append(append([]string{}, workflowFiles...), langWorkflowFiles[lang]...)
	for _, f := range docs {
		if strings.Contains(p, f) {
			return false
		}
	}
	return true
}

// IsTestContent reports whether content looks like a test file for lang.
func IsTestContent(content []byte, lang string) bool {
	for _, ind := range testIndicators[lang] {
		if bytes.Contains(content, []byte(ind)) {
			return true
		}
	}
	return false
}

const sniffLen = 8 << 10

// IsBinary treats content with a NUL byte in its head, or invalid UTF-8, as binary.
func IsBinary(content []byte) bool {
	head := content
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}
	return !utf8.Valid(content)
}

// excludedPath reports hidden paths and paths under tooling or vendored dirs.
func excludedPath(p, lang string) bool {
	for _, part := range strings.Split(p, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	dirs := append(append([]string{}, excludedDirs...), langExcludedDirs[lang]...)
	for _, d := range dirs {
		if strings.Contains(p, "/"+d+"/") || strings.HasPrefix(p, d+"/") {
			return true
		}
	}
	return false
}
