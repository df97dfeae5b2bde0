package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RLabs-Inc/memory/internal/api"
	"github.com/RLabs-Inc/memory/internal/config"
	"github.com/RLabs-Inc/memory/internal/curator"
	"github.com/RLabs-Inc/memory/internal/embedding"
	"github.com/RLabs-Inc/memory/internal/engine"
	"github.com/RLabs-Inc/memory/internal/lifecycle"
	"github.com/RLabs-Inc/memory/internal/migration"
	"github.com/RLabs-Inc/memory/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	s, err := store.Open(cfg.CentralPath, cfg.LocalPath, cfg.StorageMode)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	ollama := embedding.NewOllamaClient(cfg.OllamaBaseURL, cfg.EmbeddingModel)
	if err := ollama.HealthCheck(context.Background()); err != nil {
		logger.Warn("ollama not reachable at startup, will retry lazily", "error", err)
	}
	embedder := embedding.NewCachedEmbedder(ollama)

	migResult, err := migration.Run(context.Background(), s, embedder, migration.Options{}, logger)
	if err != nil {
		logger.Error("startup migration failed", "error", err)
		os.Exit(1)
	}
	logger.Info("startup migration complete",
		"projects_scanned", migResult.ProjectsScanned,
		"memories_scanned", migResult.MemoriesScanned,
		"memories_migrated", migResult.MemoriesMigrated,
		"embeddings_regenerated", migResult.EmbeddingsRegenerated,
	)

	mgr := lifecycle.NewManager(s, logger, cfg.PersonalEnabled)

	var cur curator.Curator
	if cfg.AnthropicAPIKey != "" {
		cur = curator.NewAnthropicCurator(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set, curator disabled")
	}

	eng := engine.New(s, embedder, mgr, cur, cfg.ManagerEnabled, logger)

	// The memory server binds to localhost for a single trusted CLI/skill
	// client (spec.md §6 defines no HTTP auth token) — BearerAuth is wired
	// but left disabled (empty key) unless a future deployment needs it.
	router := api.NewRouter(eng, "", logger)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("memory server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}

	eng.Shutdown(30 * time.Second)

	logger.Info("server stopped")
}
