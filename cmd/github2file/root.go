package main

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github2file/internal/cli"
	"github2file/internal/config"
	"github2file/internal/logging"
)

// app is the state shared by every command of one invocation.
type app struct {
	cfgFile    string
	cfg        *config.Config
	configPath string
	logger     *logrus.Logger
	logCloser  io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{logger: logrus.New()}
	root := &cobra.Command{
		Use:   "github2file",
		Short: "Compress a repository into an LLM-ready artifact",
		Long: `github2file - dependency-aware repository compression

github2file downloads a GitHub or GitLab repository (or reads a local checkout),
builds its dependency graph, asks a planning model which files to keep, compress
or skip, and replaces compressible files with recreation prompts written by an
execution model. The result is a single XML, JSON or YAML artifact.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
				return nil
			}
			return a.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: auto-discover github2file.yaml)")
	root.PersistentFlags().IntP("verbose", "v", 1, "verbosity level 0-3")
	root.PersistentFlags().String("log-format", "text", "log format: text or json")

	root.AddCommand(newAnalyzeCmd(a))
	root.AddCommand(newFetchCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, path, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return cli.ConfigError("loading configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return cli.ConfigError("invalid configuration", err)
	}
	closer, err := logging.InitLogger(a.logger, cfg)
	if err != nil {
		return cli.ConfigError("initializing logger", err)
	}
	a.cfg, a.configPath, a.logCloser = cfg, path, closer
	if path != "" {
		a.logger.WithField("path", path).Debug("config: loaded file")
	}
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		cli.ExitWithError(err)
	}
}
