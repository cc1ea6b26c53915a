// Package pipeline runs one analysis end to end: ingest, dependency graph,
// graph analysis, planning, execution and assembly.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github2file/internal/artifact"
	"github2file/internal/depgraph"
	"github2file/internal/llm"
	"github2file/internal/progress"
	"github2file/internal/scan"
	"github2file/internal/workers/codebase"
	"github2file/internal/workers/compress"
	"github2file/internal/workers/plan"
)

// GeneratorVersion is recorded in every artifact's metadata.
const GeneratorVersion = "1.0"

type Options struct {
	RepositoryURL  string
	Ref            string
	PlanningModel  string
	ExecutionModel string
	DryRun         bool

	CycleCap         int
	MaxCriticalPaths int
	SourceRoots      []string

	Concurrency     int
	MaxContentBytes int
	// RunTimeout bounds the whole run; 0 means none. Requests already sent
	// when it expires finish under their own timeout.
	RunTimeout time.Duration
}

// Pipeline holds the collaborators of one run. Planning and Execution are
// usually the same backend wrapped differently; only Execution goes through
// Limiter.
type Pipeline struct {
	Source    scan.Source
	Planning  llm.Client
	Execution llm.Client
	Limiter   llm.Limiter
	Reporters []progress.Reporter
	Logger    logrus.FieldLogger
	Options   Options

	now   func() time.Time
	newID func() string
}

// Result is what a run produced. A dry run fills only DryRun and Files.
type Result struct {
	RunID    string
	Files    []artifact.FileRecord
	Artifact *artifact.Artifact
	DryRun   *plan.DryRun
}

// Fallbacks lists the files that were kept verbatim because compression failed.
func (r *Result) Fallbacks() []artifact.Fallback {
	if r == nil || r.Artifact == nil {
		return nil
	}
	return r.Artifact.VerbatimFallbacks
}

func (p *Pipeline) logger() logrus.FieldLogger {
	if p.Logger != nil {
		return p.Logger
	}
	return logrus.StandardLogger()
}

// Run executes every stage in order. Fatal failures come back as *StageError;
// per-file execution failures do not fail the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if p.Options.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Options.RunTimeout)
		defer cancel()
	}
	newID := p.newID
	if newID == nil {
		newID = uuid.NewString
	}
	now := p.now
	if now == nil {
		now = time.Now
	}
	res := &Result{RunID: newID()}
	log := p.logger().WithField("run_id", res.RunID)
	opts := p.Options

	files, err := p.Source.Files(ctx)
	if err != nil {
		return nil, stageErr(StageIngest, err)
	}
	res.Files = files
	log.WithFields(logrus.Fields{"stage": StageIngest, "files": len(files)}).Info("pipeline: files ingested")

	g, err := codebase.CodeImports{SourceRoots: opts.SourceRoots, Logger: log}.Run(ctx, files)
	if err != nil {
		return nil, stageErr(StageGraph, err)
	}

	sizes := make(map[string]int64, len(files))
	for _, f := range files {
		sizes[f.Path] = f.Size
	}
	analysis := depgraph.Analyze(g, sizes, depgraph.Options{CycleCap: opts.CycleCap, MaxCriticalPaths: opts.MaxCriticalPaths})
	if analysis.Warning != nil {
		log.WithField("stage", StageAnalyze).Warn(analysis.Warning.Error())
	}
	log.WithFields(logrus.Fields{
		"stage":          StageAnalyze,
		"cycles":         len(analysis.Cycles),
		"critical_paths": len(analysis.CriticalPaths),
	}).Info("pipeline: graph analyzed")

	planner := &plan.Planner{LLM: p.Planning, Model: opts.PlanningModel, Logger: log}
	in := plan.Input{
		RepositoryURL: opts.RepositoryURL,
		Files:         files,
		Graph:         g,
		CriticalPaths: analysis.CriticalPaths,
		Cycles:        analysis.Cycles,
	}
	if opts.DryRun {
		dr, err := planner.DryRun(in)
		if err != nil {
			return nil, stageErr(StagePlan, err)
		}
		res.DryRun = &dr
		log.WithField("stage", StagePlan).Info("pipeline: dry run, nothing sent")
		return res, nil
	}
	planned, err := planner.Plan(ctx, in)
	if err != nil {
		return nil, stageErr(StagePlan, err)
	}

	todo := planned.Plan.With(artifact.DispositionCompress)
	reporters := append([]progress.Reporter{progress.LogReporter(log)}, p.Reporters...)
	exec := &compress.Executor{
		LLM:             p.Execution,
		Limiter:         p.Limiter,
		Model:           opts.ExecutionModel,
		Concurrency:     opts.Concurrency,
		MaxContentBytes: opts.MaxContentBytes,
		Tracker:         progress.NewTracker(res.RunID, len(todo), reporters...),
		Logger:          log,
	}
	entries := exec.Run(ctx, files, planned.Plan, g)

	res.Artifact = Assemble(Assembly{
		Metadata: artifact.RepositoryMetadata{
			RunID:            res.RunID,
			RepositoryURL:    scan.RedactURL(opts.RepositoryURL),
			Ref:              opts.Ref,
			AnalysisDate:     now().UTC().Format(time.RFC3339),
			GeneratorVersion: GeneratorVersion,
			PlanningModel:    opts.PlanningModel,
			ExecutionModel:   opts.ExecutionModel,
		},
		Files:    files,
		Graph:    g,
		Analysis: analysis,
		Plan:     planned.Plan,
		Entries:  entries,
		Warnings: planned.Warnings,
	})
	if err := res.Artifact.Validate(); err != nil {
		return nil, stageErr(StageAssemble, err)
	}
	for _, fb := range res.Artifact.VerbatimFallbacks {
		log.WithFields(logrus.Fields{"stage": StageExecute, "path": fb.Path}).Warnf("kept verbatim due to compression failure: %s", fb.Reason)
	}
	log.WithFields(logrus.Fields{
		"stage":      StageAssemble,
		"compressed": len(res.Artifact.RecoveryGuide),
		"fallbacks":  len(res.Artifact.VerbatimFallbacks),
	}).Info("pipeline: artifact assembled")
	return res, nil
}
