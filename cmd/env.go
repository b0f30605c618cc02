package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/pipeline"
	"github.com/sells-group/leadflow/internal/resilience"
	"github.com/sells-group/leadflow/internal/store"
	"github.com/sells-group/leadflow/pkg/propdata"
)

// env holds the wired collaborators shared by all commands.
type env struct {
	Store        store.Store
	Provider     propdata.Client
	Orchestrator *pipeline.Orchestrator
}

func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	provider := initProvider()

	var opts []pipeline.NormalizerOption
	if cfg.Pipeline.DescriptiveFallbacks {
		opts = append(opts, pipeline.WithDescriptiveFallbacks())
	}

	orch := pipeline.NewOrchestrator(provider, st, pipeline.NewNormalizer(opts...), pipeline.Settings{
		PageSize: cfg.Pipeline.PageSize,
		MaxPages: cfg.Pipeline.MaxPages,
	})

	return &env{Store: st, Provider: provider, Orchestrator: orch}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leadflow.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.MaxConns, cfg.Store.MinConns)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initProvider() propdata.Client {
	opts := []propdata.Option{
		propdata.WithRateLimit(cfg.Provider.RateLimit, cfg.Provider.RateBurst),
	}
	if cfg.Provider.BaseURL != "" {
		opts = append(opts, propdata.WithBaseURL(cfg.Provider.BaseURL))
	}
	if cfg.Provider.MaxAttempts > 0 {
		p := resilience.DefaultPolicy()
		p.Attempts = cfg.Provider.MaxAttempts
		opts = append(opts, propdata.WithRetryPolicy(p))
	}
	return propdata.NewClient(cfg.Provider.APIKey, opts...)
}

func (e *env) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}
