// Command minutemand is the Minuteman server daemon. It opens the task
// store, wires the extraction and lifecycle layers, and serves the HTTP API
// until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"minuteman/analytics"
	"minuteman/config"
	"minuteman/extract"
	"minuteman/extract/mock"
	"minuteman/internal/version"
	"minuteman/lifecycle"
	"minuteman/server"
	"minuteman/store"
)

var configPath = flag.String("config", "minuteman.yaml", "path to config file")

func main() {
	flag.Parse()

	cfg := config.DefaultConfig()
	if _, err := os.Stat(*configPath); err == nil {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config %s: %v", *configPath, err)
		}
		cfg = loaded
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	logger.Info("starting minutemand",
		"version", version.Version,
		"commit", version.Commit,
	)

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store %s: %v", cfg.DBPath, err)
	}
	defer st.Close()

	if err := bootstrapAdmin(context.Background(), st, cfg); err != nil {
		log.Fatalf("Failed to bootstrap admin user: %v", err)
	}

	var extractor extract.Extractor
	switch cfg.Extractor.Provider {
	case "", "gemini":
		if cfg.Extractor.APIKey == "" {
			logger.Warn("no extractor API key configured, meeting processing will fail")
		}
		extractor = extract.NewGeminiExtractor(extract.GeminiConfig{
			APIKey:  cfg.Extractor.APIKey,
			Model:   cfg.Extractor.Model,
			BaseURL: cfg.Extractor.BaseURL,
		})
	case "mock":
		extractor = mock.New()
	default:
		log.Fatalf("Unknown extractor provider %q", cfg.Extractor.Provider)
	}

	engine := lifecycle.New(st)
	reader := analytics.NewReader(st)

	srv := server.New(*cfg, version.Version, logger)
	srv.SetStore(st)
	srv.SetEngine(engine)
	srv.SetAnalytics(reader)
	srv.SetExtractor(extractor)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	fmt.Printf("Minuteman server running on http://localhost%s\n", cfg.Server.Addr)
	fmt.Printf("Version: %s (%s)\n", version.Version, version.Commit)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig.String())
	case err := <-errCh:
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Error("server stop error", "error", err)
	}
	fmt.Println("Shutdown complete")
}

// bootstrapAdmin creates the configured admin account when the store is
// empty so a fresh install has a way in.
func bootstrapAdmin(ctx context.Context, st *store.Store, cfg *config.Config) error {
	n, err := st.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 || cfg.Auth.AdminPass == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Auth.AdminPass), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return st.CreateUser(ctx, &store.User{
		Username:     cfg.Auth.AdminUser,
		PasswordHash: string(hash),
		IsAdmin:      true,
	})
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
