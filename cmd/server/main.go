package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relaywire/chat-relay/internal/archiver"
	"github.com/relaywire/chat-relay/internal/config"
	"github.com/relaywire/chat-relay/internal/database"
	"github.com/relaywire/chat-relay/internal/server"
	"github.com/relaywire/chat-relay/internal/store"
	"github.com/relaywire/chat-relay/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/server.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting chat relay",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"listen_addr", cfg.Listen.Addr,
		"ws_addr", cfg.Listen.WSAddr,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// The operator can also stop the server by typing ".quit" on stdin.
	go adminLoop(cancel, logger)

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("database connected")

	gateway := store.NewPostgres(pool, logger)

	// Start the history archiver
	arch := archiver.New(archiver.Config{
		QueueCapacity: cfg.Archiver.QueueCapacity,
		AppendTimeout: cfg.Archiver.AppendTimeout,
	}, gateway, logger)
	arch.Start()
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		arch.Stop(stopCtx)
	}()

	srv := server.New(server.Config{
		Addr:         cfg.Listen.Addr,
		WSAddr:       cfg.Listen.WSAddr,
		WriteTimeout: cfg.Session.WriteTimeout,
		HistoryLimit: cfg.Session.HistoryLimit,
	}, gateway, arch, logger)

	// Optional health endpoint
	var healthServer *http.Server
	if cfg.Health.Addr != "" {
		healthServer = &http.Server{
			Addr:    cfg.Health.Addr,
			Handler: createHealthHandler(pool, srv, arch),
		}
		go func() {
			logger.Info("starting health server", "addr", cfg.Health.Addr)
			if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
				logger.Error("health server error", "error", err)
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx) })
	g.Go(func() error { return srv.ListenAndServeWS(gctx) })

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		cancel()
		os.Exit(1)
	}

	logger.Info("shutting down...")

	if healthServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		healthServer.Shutdown(shutdownCtx)
	}

	logger.Info("chat relay stopped")
}

// adminLoop reads operator commands from stdin until EOF.
func adminLoop(cancel context.CancelFunc, logger *slog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == ".quit" {
			logger.Info("operator requested shutdown")
			cancel()
			return
		}
	}
}

// pinger is the subset of pgxpool.Pool used by the health check.
type pinger interface {
	Ping(ctx context.Context) error
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(db pinger, srv *server.Server, arch *archiver.Archiver) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check database
		if err := db.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}

		health.Components["sessions"] = srv.Sessions()

		stats := arch.Stats()
		health.Components["archiver"] = map[string]interface{}{
			"buffered": stats.Len,
			"archived": stats.TotalPopped,
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
