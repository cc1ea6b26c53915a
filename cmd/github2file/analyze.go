package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github2file/internal/artifact"
	"github2file/internal/cli"
	"github2file/internal/pipeline"
	"github2file/internal/progress"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <repo_url|dir>",
		Short: "Build the compressed repository artifact",
		Long: `Fetch the repository, analyze its dependency graph, plan which files to keep,
compress or skip, and write the artifact.

With --dry-run the planning prompt and the expected response shape are printed
and no model request is sent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.analyze(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}

	f := cmd.Flags()
	f.Bool("dry-run", false, "print the planning prompt without calling any model")
	f.String("format", "xml", "artifact format: xml, json or yaml")
	f.Int("rate-limit", 20, "execution requests per minute")
	f.String("provider", "gemini", "LLM provider: gemini, groq, openai, ollama or fake")
	f.String("planning-model", "", "planning-tier model (default depends on provider)")
	f.String("execution-model", "", "execution-tier model (default depends on provider)")
	f.String("base-url", "", "override the provider endpoint")
	f.Int("concurrency", 4, "parallel execution requests")
	f.Int("max-retries", 8, "attempts per request for transient failures")
	f.Duration("request-timeout", 2*time.Minute, "timeout per model request attempt")
	f.Duration("timeout", 0, "stop dispatching new work after this long (0 disables)")
	f.Int("cycle-cap", 1000, "stop cycle enumeration after this many cycles")
	f.Int("max-critical-paths", 5, "critical paths to report")
	f.String("sink", "file", "where to store the artifact: file, s3 or postgres")
	f.String("progress-addr", "", "serve execution progress over websocket at this address")
	addSourceFlags(cmd)
	return cmd
}

func addSourceFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("lang", "", "only include files of this language (python, go, js, ...)")
	f.String("branch", "main", "branch or tag to download")
	f.String("token", "", "access token for private repositories")
	f.Bool("keep-comments", true, "keep comments and docstrings")
	f.StringP("output", "o", "", "output file or directory (default: repos/)")
}

func (a *app) analyze(ctx context.Context, out io.Writer, target string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	log := a.logger

	// A dry run never reaches a backend, so it needs no credentials.
	backends := &pipeline.Backends{}
	if !a.cfg.DryRun {
		b, err := pipeline.NewBackends(ctx, a.cfg, log)
		if err != nil {
			return cli.ConfigError("creating LLM backend", err)
		}
		defer b.Close()
		backends = b
	}

	var reporters []progress.Reporter
	if a.cfg.ProgressAddr != "" {
		hub := progress.NewHub(log)
		reporters = append(reporters, hub)
		go func() {
			if err := hub.Serve(ctx, a.cfg.ProgressAddr); err != nil {
				log.WithError(err).Warn("progress: server stopped")
			}
		}()
	}

	src := a.source(target)
	p := &pipeline.Pipeline{
		Source:    src,
		Planning:  backends.Planning,
		Execution: backends.Execution,
		Limiter:   backends.Limiter,
		Reporters: reporters,
		Logger:    log,
		Options:   pipeline.OptionsFromConfig(a.cfg, src.Describe()),
	}
	res, err := p.Run(ctx)
	if err != nil {
		return cli.RunError(err)
	}

	if res.DryRun != nil {
		fmt.Fprintf(out, "Dry run: %d files, no model requests sent.\n\n", len(res.Files))
		fmt.Fprintln(out, "=== Planning prompt ===")
		fmt.Fprintln(out, res.DryRun.Prompt)
		fmt.Fprintln(out, "=== Expected response ===")
		fmt.Fprintln(out, res.DryRun.ExpectedSchema)
		return nil
	}

	format := a.cfg.ArtifactFormat()
	store, name, closeStore, err := a.openStore(cli.ArtifactName(cli.RepoName(target), a.cfg.Language, format.Ext()))
	if err != nil {
		return cli.RunError(&pipeline.StageError{Stage: pipeline.StageSink, Err: err})
	}
	defer closeStore()

	loc, err := pipeline.Publish(ctx, store, res.RunID, name, res.Artifact, format)
	if err != nil {
		return cli.RunError(err)
	}

	md := res.Artifact.Metadata
	fmt.Fprintf(out, "Run %s: %d files, %d compressed, %d preserved.\n",
		res.RunID, md.FileCount, countDone(res), len(res.Artifact.PreservedContent))
	for _, w := range res.Artifact.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	if fb := res.Fallbacks(); len(fb) > 0 {
		fmt.Fprintf(out, "%d files kept verbatim after compression failed:\n", len(fb))
		for _, f := range fb {
			fmt.Fprintf(out, "  %s: %s\n", f.Path, f.Reason)
		}
	}
	fmt.Fprintf(out, "Artifact written to %s\n", loc)
	return nil
}

func countDone(res *pipeline.Result) int {
	n := 0
	for _, e := range res.Artifact.CompressionEntries {
		if e.Status == artifact.StatusDone {
			n++
		}
	}
	return n
}
