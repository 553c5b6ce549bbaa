package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sel1nabd/lupin/pipeline"
)

func main() {
	var (
		initCatalog = flag.Bool("init", false, "bootstrap the catalogue if the store is empty")
		source      = flag.String("source", "", "run one source: ai_search, forum or code_host")
		query       = flag.String("query", "", "override the default query for the selected source")
		configPath  = flag.String("config", "", "optional YAML config file")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := pipeline.LoadConfig()
	if *configPath != "" {
		if err := cfg.ApplyFile(*configPath); err != nil {
			slog.Error("load config file", "err", err)
			os.Exit(1)
		}
	}
	if *query != "" {
		cfg.GitHubQuery = *query
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var store pipeline.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("invalid database URL", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			slog.Error("database ping failed", "err", err)
			os.Exit(1)
		}

		pg := pipeline.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			slog.Error("schema setup failed", "err", err)
			os.Exit(1)
		}
		store = pg
		slog.Info("connected to database")
	} else {
		slog.Warn("DB_URL not set, using in-memory store")
		store = pipeline.NewMemStore()
	}

	p := pipeline.New(cfg, store)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	switch {
	case *initCatalog:
		res, err := p.InitializeCatalog(ctx)
		exitOn(err)
		_ = enc.Encode(res)
	case *source == string(pipeline.SourceAISearch):
		res, err := p.DiscoverExploits(ctx, *query)
		exitOn(err)
		_ = enc.Encode(res)
	case *source != "":
		res, err := p.RunSource(ctx, pipeline.Source(*source))
		exitOn(err)
		_ = enc.Encode(res)
	default:
		flag.Usage()
		os.Exit(2)
	}

	slog.Info("pipeline finished",
		"fetched", pipeline.PipelineStats.Fetched.Load(),
		"candidates", pipeline.PipelineStats.Candidates.Load(),
		"duplicates", pipeline.PipelineStats.Duplicates.Load(),
		"filtered", pipeline.PipelineStats.Filtered.Load(),
		"accepted", pipeline.PipelineStats.Accepted.Load(),
		"errors", pipeline.PipelineStats.Errors.Load(),
	)
}

func exitOn(err error) {
	if err != nil {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}
}
