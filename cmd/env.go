package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/deeptech-ai/talent-cli/internal/embedding"
	"github.com/deeptech-ai/talent-cli/internal/embedjob"
	"github.com/deeptech-ai/talent-cli/internal/search"
	"github.com/deeptech-ai/talent-cli/internal/store"
	"github.com/deeptech-ai/talent-cli/pkg/jina"
)

// appEnv holds the initialized store, encoder, and services shared by the
// search/embed/serve commands.
type appEnv struct {
	Store   store.Store
	Encoder embedding.Encoder
	Search  *search.Service
	Runner  *embedjob.Runner
}

// Close releases resources held by the environment.
func (env *appEnv) Close() {
	if env.Store != nil {
		_ = env.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "talent.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Jina.Dimensions, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv sets up the store, Jina encoder, and services. Callers should defer
// env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	if cfg.Jina.Key == "" {
		return nil, eris.New("jina API key is required (TALENT_JINA_KEY)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	jinaOpts := []jina.Option{
		jina.WithBaseURL(cfg.Jina.BaseURL),
		jina.WithModel(cfg.Jina.Model),
		jina.WithDimensions(cfg.Jina.Dimensions),
	}
	if cfg.Jina.RateRPS > 0 {
		jinaOpts = append(jinaOpts, jina.WithRateLimit(cfg.Jina.RateRPS))
	}
	jinaClient := jina.NewClient(cfg.Jina.Key, jinaOpts...)
	enc := embedding.NewJinaEncoder(jinaClient, cfg.Jina.Dimensions)

	return &appEnv{
		Store:   st,
		Encoder: enc,
		Search:  search.NewService(st, enc),
		Runner:  embedjob.NewRunner(st, enc, cfg.Embed.Concurrency),
	}, nil
}
