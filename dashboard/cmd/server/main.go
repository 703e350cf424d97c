// Command server runs the NMS dashboard backend.
//
// # Usage
//
//	server --config /etc/nmsdash/config.yaml
//	server --port 8080 --debug
//
// # Configuration
//
// The server can be configured via, in increasing precedence:
// - A YAML config file (--config)
// - Environment variables (NMSDASH_*)
// - Command-line flags
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

	"github.com/pilot-net/nms-dashboard/dashboard/internal/api"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/cache"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/config"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/entity"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/metrics"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/nms"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/refresh"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/store"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/view"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file")
		port       = flag.Int("port", 0, "HTTP server port (overrides config)")
		debug      = flag.Bool("debug", false, "Enable debug logging")
		version    = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Println("nmsdash-server v0.1.0")
		os.Exit(0)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.ApplyEnvOverrides()
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *debug {
		cfg.Server.Debug = true
	}

	// Set up logging
	logLevel := slog.LevelInfo
	if cfg.Server.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source, closeSource, err := newSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up source", "source", cfg.Source, "error", err)
		os.Exit(1)
	}
	defer closeSource()

	entities := entity.NewStore(logger)
	refresher := refresh.New(source, entities, refresh.Config{
		MaxAge:   cfg.Cache.MaxAge,
		Interval: cfg.Cache.RefreshInterval,
	}, logger)

	healthOpts := metrics.Options{
		Source: string(cfg.Source),
		MaxAge: cfg.Cache.MaxAge,
	}
	if pool, ok := source.(metrics.PoolStatsProvider); ok {
		healthOpts.Pool = pool
	}

	// Snapshot cache is optional
	if cfg.Redis.URL != "" {
		snapshots, err := cache.New(cfg.Redis.URL, logger)
		if err != nil {
			logger.Warn("snapshot cache disabled", "error", err)
		} else {
			defer snapshots.Close()
			if _, err := snapshots.Warm(ctx, entities); err != nil {
				logger.Warn("failed to warm store from cache", "error", err)
			}
			refresher.SetPersister(snapshots)
			healthOpts.Cache = snapshots
		}
	}

	refresher.Start(ctx)
	defer refresher.Stop()

	metricsCollector := metrics.NewCollector(entities, healthOpts)
	apiServer := api.NewServer(view.New(entities), refresher, metricsCollector, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      apiServer,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("starting server", "port", cfg.Server.Port, "source", cfg.Source)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

// newSource builds the fetch collaborator selected by cfg.Source.
func newSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (refresh.Source, func(), error) {
	switch cfg.Source {
	case config.SourcePostgres:
		pingCtx, cancel := context.WithTimeout(ctx, config.DatabasePingTimeout)
		defer cancel()

		db, err := store.NewStoreFromURL(pingCtx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(pingCtx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("database ping failed: %w", err)
		}
		n, err := db.CountDevices(pingCtx)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("reading devices table: %w", err)
		}
		logger.Info("connected to database", "devices", n)
		return db, db.Close, nil

	default:
		client := nms.NewClient(nms.Config{
			BaseURL:   cfg.NMS.URL,
			AuthToken: cfg.NMS.Token,
			Timeout:   cfg.NMS.Timeout,
			RateLimit: cfg.NMS.RateLimit,
		}, logger)
		return client, func() {}, nil
	}
}
