// Package compress turns files planned for derived compression into
// recreation prompts using the execution-tier model.
package compress

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"

	"github2file/internal/artifact"
	"github2file/internal/llm"
	"github2file/internal/llmtool"
	"github2file/internal/progress"
)

const (
	DefaultConcurrency     = 4
	DefaultMaxContentBytes = 64 << 10
	defaultCacheSize       = 1024

	reasonDeadline = "run deadline exceeded"
	reasonCanceled = "run canceled"
)

// Executor issues one execution-tier request per compressible file.
//
// LLM is expected to be wrapped with llm.Retry, llm.RateLimit(Limiter) and
// llm.Timeout. The executor acquires the first admission itself under the run
// context, so once the run deadline passes nothing new is sent, while requests
// already admitted finish under their own timeout and retry ceiling.
type Executor struct {
	LLM             llm.Client
	Limiter         llm.Limiter
	Model           string
	Concurrency     int
	MaxContentBytes int
	CacheSize       int
	Tracker         *progress.Tracker
	Logger          logrus.FieldLogger
}

type job struct {
	file         artifact.FileRecord
	hint         string
	dependencies []string
	dependents   []string
}

// Run compresses every file whose plan disposition is compress and returns
// one entry per such file, in the order of files. Failures never abort the
// run; they come back as entries with status failed.
func (e *Executor) Run(ctx context.Context, files []artifact.FileRecord, plan artifact.AnalysisPlan, g artifact.DependencyGraph) []artifact.CompressionEntry {
	log := e.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	deps, users := g.Outgoing(), g.Incoming()
	var jobs []job
	for _, f := range files {
		d, ok := plan[f.Path]
		if !ok || d.Disposition != artifact.DispositionCompress {
			continue
		}
		jobs = append(jobs, job{file: f, hint: d.Hint, dependencies: deps[f.Path], dependents: users[f.Path]})
	}
	if len(jobs) == 0 {
		return nil
	}

	n := e.Concurrency
	if n <= 0 {
		n = DefaultConcurrency
	}
	size := e.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		panic(err) // size is positive
	}
	var sf singleflight.Group

	entries := make([]artifact.CompressionEntry, len(jobs))
	p := pool.New().WithMaxGoroutines(n)
	for i, j := range jobs {
		entries[i] = artifact.CompressionEntry{
			Path:         j.file.Path,
			SourceDigest: j.file.Digest(),
			Status:       artifact.StatusPending,
		}
		if err := ctx.Err(); err != nil {
			e.finish(&entries[i], "", stopReason(err), log)
			continue
		}
		p.Go(func() {
			if err := ctx.Err(); err != nil {
				e.finish(&entries[i], "", stopReason(err), log)
				return
			}
			prompt, err := e.compress(ctx, j, cache, &sf)
			if err != nil {
				e.finish(&entries[i], "", err.Error(), log)
				return
			}
			e.finish(&entries[i], prompt, "", log)
		})
	}
	p.Wait()
	return entries
}

// compress returns the recreation prompt for j, reusing the answer for any
// earlier file with identical content.
func (e *Executor) compress(ctx context.Context, j job, cache *lru.Cache[string, string], sf *singleflight.Group) (string, error) {
	key := j.file.Digest()
	if v, ok := cache.Get(key); ok {
		return v, nil
	}
	v, err, _ := sf.Do(key, func() (any, error) {
		if v, ok := cache.Get(key); ok {
			return v, nil
		}
		req, err := e.prompt(j)
		if err != nil {
			return "", err
		}
		reqCtx := llm.WithPhase(context.WithoutCancel(ctx), "execute")
		if e.Limiter != nil {
			if err := e.Limiter.Acquire(ctx); err != nil {
				return "", errors.New(stopReason(err))
			}
			reqCtx = llm.WithCredits(reqCtx, 1)
		}
		out, err := e.LLM.Complete(reqCtx, req, e.Model)
		if err != nil {
			return "", err
		}
		out = cleanPrompt(out)
		if out == "" {
			return "", fmt.Errorf("empty recreation prompt")
		}
		cache.Add(key, out)
		return out, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (e *Executor) finish(entry *artifact.CompressionEntry, prompt, reason string, log logrus.FieldLogger) {
	failed := reason != ""
	if failed {
		entry.Status = artifact.StatusFailed
		entry.Error = artifact.CleanText(reason)
	} else {
		entry.Status = artifact.StatusDone
		entry.RecreationPrompt = prompt
	}
	log.WithFields(logrus.Fields{"stage": "execute", "path": entry.Path, "status": entry.Status}).Debug("compress: file finished")
	e.Tracker.Record(entry.Path, string(entry.Status), failed)
}

func stopReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return reasonDeadline
	}
	return reasonCanceled
}

var executePromptSpec = llmtool.ApplyPresets(llmtool.StructuredPromptSpec{
	Purpose: "Write a recreation prompt: a short instruction from which a capable engineer or model can regenerate a functionally equivalent version of this file.",
	Background: "The file's content will be discarded and later regenerated from your prompt alone, " +
		"with the rest of the repository available for reference.",
	Rules: []string{
		"State what the file does, its public interface, and the edge cases it handles.",
		"Name the files it depends on and the files that depend on it when they constrain its shape.",
		"Keep it under 200 words.",
	},
	OutputFormat: "Plain text only: the recreation prompt itself, with no preamble or markdown.",
}, llmtool.PresetNoVerbatim(), llmtool.PresetNoInvent())

type fileSummary struct {
	Path         string   `json:"path"`
	Language     string   `json:"language"`
	Bytes        int64    `json:"bytes"`
	DependsOn    []string `json:"depends_on"`
	DependedOnBy []string `json:"depended_on_by"`
	Hint         string   `json:"hint,omitempty"`
}

// prompt renders the execution request for one file.
func (e *Executor) prompt(j job) (string, error) {
	max := e.MaxContentBytes
	if max <= 0 {
		max = DefaultMaxContentBytes
	}
	sum := fileSummary{
		Path:         j.file.Path,
		Language:     j.file.Language,
		Bytes:        j.file.Size,
		DependsOn:    nonNil(j.dependencies),
		DependedOnBy: nonNil(j.dependents),
		Hint:         j.hint,
	}
	spec := executePromptSpec
	spec.Body = truncate(j.file.Text(), max)
	return spec.Render(sum)
}

// truncate cuts s to at most max bytes on a rune boundary and says how much was dropped.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + fmt.Sprintf("\n... [truncated %d bytes]\n", len(s)-cut)
}

func cleanPrompt(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```") && len(s) >= 6 {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.Contains(s[:i], " ") {
			s = s[i+1:] // language tag
		}
	}
	return artifact.CleanText(strings.TrimSpace(s))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
