package scan

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github2file/internal/artifact"
)

// Source yields the ordered FileRecord snapshot for one run.
type Source interface {
	Files(ctx context.Context) ([]artifact.FileRecord, error)
	// Describe names the source for metadata and logs (URL or directory).
	Describe() string
}

// IngestionError reports that the repository could not be acquired or read.
type IngestionError struct {
	Source string
	Err    error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Source, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// Options controls which files survive filtering.
type Options struct {
	// Language restricts files to one language; empty keeps every known language.
	Language string
	// KeepComments disables comment and docstring stripping.
	KeepComments bool
	// IncludeTests keeps files whose path or content looks like a test.
	IncludeTests bool
	// MaxFileBytes drops larger files; 0 means no limit.
	MaxFileBytes int64

	Logger logrus.FieldLogger
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	return logrus.StandardLogger()
}

// rawFile is one entry before filtering.
type rawFile struct {
	path    string
	content []byte
}

// collect filters raw entries and orders them README first, then by path.
func collect(entries []rawFile, opts Options) ([]artifact.FileRecord, error) {
	var allowed map[string]bool
	if opts.Language != "" {
		exts, err := Extensions(opts.Language)
		if err != nil {
			return nil, err
		}
		allowed = make(map[string]bool, len(exts))
		for _, e := range exts {
			allowed[e] = true
		}
	}
	log := opts.logger()

	var readmes []rawFile
	seen := make(map[string]bool, len(entries))
	out := make([]artifact.FileRecord, 0, len(entries))
	for _, e := range entries {
		p := artifact.CleanPath(e.path)
		if !artifact.ValidPath(p) || seen[p] {
			continue
		}
		if opts.MaxFileBytes > 0 && int64(len(e.content)) > opts.MaxFileBytes {
			log.WithField("path", p).Debug("scan: skip oversized file")
			continue
		}
		if isReadme(p) {
			seen[p] = true
			readmes = append(readmes, rawFile{path: p, content: e.content})
			continue
		}
		lang := DetectLanguage(p)
		if lang == "" {
			continue
		}
		if allowed != nil && !allowed[strings.ToLower(path.Ext(p))] {
			continue
		}
		if !opts.IncludeTests && !LikelyUseful(p, lang) {
			continue
		}
		binary := IsBinary(e.content)
		content := e.content
		if binary {
			lang = LanguageBinary
		} else {
			if !opts.IncludeTests && IsTestContent(content, lang) {
				log.WithField("path", p).Debug("scan: skip test file")
				continue
			}
			if !opts.KeepComments {
				content = []byte(StripComments(string(content), lang))
			}
		}
		seen[p] = true
		out = append(out, artifact.NewFileRecord(p, content, lang, binary))
	}

	// The best README always leads; any other README is an ordinary
	// markdown file subject to the language and directory filters.
	var readme *artifact.FileRecord
	best := -1
	for i, r := range readmes {
		if best < 0 || betterReadme(r.path, readmes[best].path) {
			best = i
		}
	}
	for i, r := range readmes {
		if i == best {
			rec := artifact.NewFileRecord(r.path, r.content, "md", false)
			readme = &rec
			continue
		}
		if allowed != nil && !allowed[strings.ToLower(path.Ext(r.path))] {
			continue
		}
		if !opts.IncludeTests && excludedPath(r.path, "md") {
			continue
		}
		binary := IsBinary(r.content)
		lang := "md"
		if binary {
			lang = LanguageBinary
		}
		out = append(out, artifact.NewFileRecord(r.path, r.content, lang, binary))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	if readme != nil {
		out = append([]artifact.FileRecord{*readme}, out...)
	}
	log.WithFields(logrus.Fields{"files": len(out), "candidates": len(entries)}).Info("scan: collected files")
	return out, nil
}

// betterReadme prefers README.md over README, then the shallowest path.
func betterReadme(candidate, current string) bool {
	cmd := strings.HasSuffix(candidate, ".md")
	pmd := strings.HasSuffix(current, ".md")
	if cmd != pmd {
		return cmd
	}
	cd, pd := strings.Count(candidate, "/"), strings.Count(current, "/")
	if cd != pd {
		return cd < pd
	}
	return candidate < current
}
