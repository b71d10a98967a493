package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/shoplog/internal/config"
	"github.com/rickgao/shoplog/internal/feed"
	"github.com/rickgao/shoplog/internal/ingest"
	"github.com/rickgao/shoplog/internal/publisher"
	"github.com/rickgao/shoplog/internal/server"
	"github.com/rickgao/shoplog/internal/storage"
	"github.com/rickgao/shoplog/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/indexer.yaml", "path to config file")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	if err := run(*configPath, *envFile); err != nil {
		slog.Error("indexer exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string) error {
	if err := config.LoadEnv(envFile); err != nil {
		return err
	}

	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("starting indexer",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
		"config", configPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer backend.Close()

	opts := []ingest.ServiceOption{
		ingest.WithLogger(logger),
		ingest.WithRetries(cfg.Ingest.MaxAttempts, cfg.Ingest.RetryBackoff),
	}

	var feedHandler http.Handler
	if cfg.Feed.Enabled {
		hub := feed.NewHub(feed.Config{
			PingInterval: cfg.Feed.PingInterval,
			SendBuffer:   cfg.Feed.SendBuffer,
		}, logger)
		defer hub.Close()
		opts = append(opts, ingest.WithNotifier(hub))
		feedHandler = hub
	}

	var ingester ingest.Ingester = ingest.NewService(backend, opts...)

	if cfg.Ingest.Discipline == config.DisciplineQueue {
		queue := ingest.NewQueue(ingester, cfg.Ingest.QueueSize, logger)
		if err := queue.Start(ctx); err != nil {
			return fmt.Errorf("start queue: %w", err)
		}
		defer shutdown(logger, "queue", queue.Stop)
		ingester = queue
	}

	if cfg.Publisher.Enabled {
		pub := publisher.New(publisher.Config{
			Interval: cfg.Publisher.Interval,
			Path:     cfg.Publisher.Path,
		}, backend, logger)
		if err := pub.Start(ctx); err != nil {
			return fmt.Errorf("start publisher: %w", err)
		}
		defer shutdown(logger, "publisher", pub.Stop)
	}

	srv := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		Mode:            cfg.Server.Mode,
		ChatMarker:      cfg.Parser.ChatMarker,
		DefaultUploader: cfg.Ingest.DefaultUploader,
	}, server.Deps{
		Ingester: ingester,
		Index:    backend,
		Health:   backend,
		Feed:     feedHandler,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	logger.Info("indexer running",
		"addr", cfg.Server.Addr,
		"storage", cfg.Storage.Driver,
		"discipline", cfg.Ingest.Discipline,
		"feed", cfg.Feed.Enabled,
		"publisher", cfg.Publisher.Enabled,
	)

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutting down")
	return nil
}

func newLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
}

func shutdown(logger *slog.Logger, name string, stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		logger.Error("shutdown failed", "component", name, "error", err)
	}
}
