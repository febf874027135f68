package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lysyi3m/newsdesk/app/api"
	"github.com/lysyi3m/newsdesk/app/articles"
	"github.com/lysyi3m/newsdesk/app/cache"
	"github.com/lysyi3m/newsdesk/app/cfg"
	"github.com/lysyi3m/newsdesk/app/database"
	"github.com/lysyi3m/newsdesk/app/feed"
	"github.com/lysyi3m/newsdesk/app/ranking"
	"github.com/lysyi3m/newsdesk/app/syndication"
	"github.com/lysyi3m/newsdesk/app/tasks"
)

func main() {
	config, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if config == nil {
		return
	}

	setupLogging(config.Debug)

	if err := run(); err != nil {
		slog.Error("Newsdesk stopped with error", "error", err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run() error {
	config := cfg.Get()
	slog.Info("Starting Newsdesk", "version", config.Version)

	if err := os.MkdirAll(filepath.Dir(config.DBPath), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := database.NewConnection(config.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return err
	}
	slog.Info("Database ready", "path", config.DBPath, "migration_version", version, "dirty", dirty)

	gateway := cache.NewGateway(openCacheStore())
	defer gateway.Close()

	ranker, err := ranking.NewDefaultRanker(config.KeywordsFile)
	if err != nil {
		return fmt.Errorf("failed to load keyword table: %w", err)
	}

	sources := syndication.NewSourceCache(config.SourcesDir)
	if err := sources.Run(); err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}
	slog.Info("Sources loaded", "dir", config.SourcesDir, "count", sources.GetSourceCount(), "enabled", len(sources.GetEnabledSources()))

	repo := database.NewArticleStore(db)
	articleService := articles.NewService(repo, gateway)
	feedService := feed.NewService(repo, gateway, ranker)

	scheduler := tasks.NewScheduler(articleService, sources, &http.Client{}, tasks.Settings{
		WorkerCount:      config.WorkerCount,
		BreakingSchedule: config.BreakingSchedule,
		UserAgent:        config.UserAgent,
	})
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer scheduler.Stop()
	slog.Info("Scheduler started", "workers", config.WorkerCount, "breaking_schedule", config.BreakingSchedule)

	handler := api.NewHandler(api.HandlerDeps{
		Feeds:    feedService,
		Articles: articleService,
		Generator: feed.NewGenerator(feed.Channel{
			Title:       config.SiteTitle,
			Description: config.SiteDescription,
			BaseURL:     config.BaseUrl,
			Language:    "en",
			Version:     config.Version,
		}),
		Cache:     gateway,
		DB:        db,
		Sources:   sources,
		Scheduler: scheduler,
		Version:   config.Version,
	})

	httpServer := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      api.NewServer(handler, config.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", config.Port, "base_url", config.BaseUrl)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return nil
}

// openCacheStore connects to redis. An empty address or an unreachable
// server leaves the service running without a response cache.
func openCacheStore() cache.Store {
	config := cfg.Get()
	if config.RedisAddr == "" {
		slog.Info("Response cache disabled (REDIS_ADDR not set)")
		return cache.NopStore{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := cache.NewRedisStore(ctx, config.RedisAddr, config.RedisPassword, config.RedisDB)
	if err != nil {
		slog.Warn("Redis unavailable, running without response cache", "addr", config.RedisAddr, "error", err)
		return cache.NopStore{}
	}
	return store
}
