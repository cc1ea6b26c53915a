package pipeline

import (
	"context"

	"github.com/sirupsen/logrus"

	"github2file/internal/config"
	"github2file/internal/llm"
	llmclient "github2file/internal/llmClient"
)

// Backends are the two tiers built over one provider connection.
type Backends struct {
	Planning  llm.Client
	Execution llm.Client
	Limiter   llm.Limiter

	base llm.Client
}

// NewBackends wraps the configured provider for both tiers. Both retry
// transient failures and bound each attempt; execution requests also draw
// from the shared per-minute limiter, once per attempt.
func NewBackends(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*Backends, error) {
	base, err := llm.NewClient(ctx, cfg.Provider, llmclient.Options{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
	if err != nil {
		return nil, err
	}
	return newBackends(base, cfg, logger), nil
}

func newBackends(base llm.Client, cfg *config.Config, logger logrus.FieldLogger) *Backends {
	limiter := llm.PerMinute(cfg.RateLimit)
	return &Backends{
		base: base,
		Planning: llm.Wrap(base,
			llm.WithLogging(logger),
			llm.Retry(cfg.MaxRetries, cfg.RetryBaseDelay, logger),
			llm.Timeout(cfg.RequestTimeout),
		),
		Execution: llm.Wrap(base,
			llm.WithLogging(logger),
			llm.Retry(cfg.MaxRetries, cfg.RetryBaseDelay, logger),
			llm.RateLimit(limiter),
			llm.Timeout(cfg.RequestTimeout),
		),
		Limiter: limiter,
	}
}

func (b *Backends) Close() error {
	if b == nil {
		return nil
	}
	if b.Limiter != nil {
		b.Limiter.Stop()
	}
	return b.base.Close()
}

// OptionsFromConfig copies the run settings the stages read.
func OptionsFromConfig(cfg *config.Config, repositoryURL string) Options {
	return Options{
		RepositoryURL:    repositoryURL,
		Ref:              cfg.Branch,
		PlanningModel:    cfg.PlanningModel,
		ExecutionModel:   cfg.ExecutionModel,
		DryRun:           cfg.DryRun,
		CycleCap:         cfg.CycleCap,
		MaxCriticalPaths: cfg.MaxCriticalPaths,
		SourceRoots:      cfg.SourceRoots,
		Concurrency:      cfg.Concurrency,
		MaxContentBytes:  cfg.MaxContentBytes,
		RunTimeout:       cfg.RunTimeout,
	}
}
