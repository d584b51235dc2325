package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/repcall/internal/config"
	"github.com/claude/repcall/internal/exercise"
	repmcp "github.com/claude/repcall/internal/mcp"
	"github.com/claude/repcall/internal/program"
	"github.com/claude/repcall/internal/server"
	"github.com/claude/repcall/internal/speech"
	"github.com/claude/repcall/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("RepCall starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Run migrations
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Build the speech backend
	speaker, cleanup, err := buildSpeaker(cfg.Speech, log)
	if err != nil {
		log.Error("failed to set up speech", "error", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	// Load the workout program; every exercise is priced eagerly here.
	exercises, err := program.Load(cfg.Program.Path, log, speaker)
	if err != nil {
		log.Error("failed to load workout program", "error", err)
		os.Exit(1)
	}
	for _, ex := range exercises {
		log.Info("exercise loaded",
			"name", ex.Name(),
			"sets", ex.Sets(),
			"repetitions", ex.Repetitions(),
			"duration", ex.Duration().String())
	}

	// Create server and mount the MCP transport
	srv := server.New(exercises, db, cfg.Auth.APIKey, log)
	srv.Mount("/mcp", mcpserver.NewStreamableHTTPServer(repmcp.New(exercises, db, Version, log)))

	// Start server — tsnet or plain HTTP
	listener, closeListener, err := listen(cfg, log)
	if err != nil {
		log.Error("listen failed", "error", err)
		os.Exit(1)
	}
	defer closeListener()

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// listen opens the serving socket: a tsnet listener when Tailscale is
// enabled, a plain TCP listener otherwise. The returned func releases
// whatever was opened.
func listen(cfg *config.Config, log *slog.Logger) (net.Listener, func(), error) {
	if cfg.Tailscale.Enabled {
		ts := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := ts.Start(); err != nil {
			return nil, nil, fmt.Errorf("tsnet start: %w", err)
		}
		ln, err := ts.Listen("tcp", ":80")
		if err != nil {
			ts.Close()
			return nil, nil, fmt.Errorf("tsnet listen: %w", err)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
		return ln, func() { ln.Close(); ts.Close() }, nil
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	return ln, func() { ln.Close() }, nil
}

func buildSpeaker(cfg config.SpeechConfig, log *slog.Logger) (exercise.Speaker, func(), error) {
	switch cfg.Mode {
	case "", "console":
		return speech.NewConsole(os.Stdout, cfg.WordsPerMinute), nil, nil
	case "http":
		var cache *speech.Cache
		var cleanup func()
		if cfg.CacheDir != "" {
			c, err := speech.OpenCache(cfg.CacheDir)
			if err != nil {
				// Estimates fall back to the word rate; not fatal.
				log.Warn("speech cache unavailable", "dir", cfg.CacheDir, "error", err)
			} else {
				cache = c
				cleanup = func() { c.Close() }
			}
		}
		return speech.NewHTTPSpeaker(cfg.URL, cfg.WordsPerMinute, cache, log), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown speech mode %q", cfg.Mode)
	}
}
