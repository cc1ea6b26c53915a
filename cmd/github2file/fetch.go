package main

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github2file/internal/cli"
	"github2file/internal/pipeline"
	artifactrepo "github2file/internal/repository/artifact"
	"github2file/internal/scan"
)

func newFetchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <repo_url|dir>",
		Short: "Write the filtered repository as one text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.fetch(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
	cmd.Flags().Bool("claude", false, "wrap files in <documents> tags")
	addSourceFlags(cmd)
	return cmd
}

func (a *app) fetch(ctx context.Context, out io.Writer, target string) error {
	src := a.source(target)
	files, err := src.Files(ctx)
	if err != nil {
		return cli.RunError(&pipeline.StageError{Stage: pipeline.StageIngest, Err: err})
	}

	var buf bytes.Buffer
	if err := scan.WriteText(&buf, files, a.cfg.Claude); err != nil {
		return cli.GeneralError("writing text dump", err)
	}
	dir, name := cli.SplitOutput(a.cfg.Output, defaultOutputDir, cli.DumpName(cli.RepoName(target), a.cfg.Language, a.cfg.Claude))
	loc, err := artifactrepo.NewFlatFileStore(dir).Put(ctx, "fetch", name, buf.Bytes())
	if err != nil {
		return cli.RunError(&pipeline.StageError{Stage: pipeline.StageSink, Err: err})
	}
	fmt.Fprintf(out, "%d files written to %s\n", len(files), loc)
	return nil
}
