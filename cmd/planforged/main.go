// Package main provides the entry point for the planforge server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/planforge/planforge/internal/config"
	"github.com/planforge/planforge/internal/generate"
	"github.com/planforge/planforge/internal/job"
	"github.com/planforge/planforge/internal/research"
	"github.com/planforge/planforge/internal/server"
	"github.com/planforge/planforge/internal/service"
	"github.com/planforge/planforge/internal/store"
	"github.com/planforge/planforge/internal/strava"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("failed to close log file", "error", err)
		}
	}()
	slog.SetDefault(logger)

	logger.Info("starting planforged", "addr", cfg.Addr, "output_dir", cfg.OutputDir)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		logger.Error("failed to create output directory", "dir", cfg.OutputDir, "error", err)
		os.Exit(1)
	}

	// Optional SurrealDB job mirror
	var mirror job.Mirror
	if cfg.SurrealDBURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		dbClient, err := store.NewClient(ctx, store.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger)
		if err != nil {
			cancel()
			logger.Error("failed to connect to SurrealDB", "error", err)
			os.Exit(1)
		}
		if err := dbClient.InitSchema(ctx); err != nil {
			cancel()
			logger.Error("failed to initialize schema", "error", err)
			os.Exit(1)
		}
		cancel()
		defer func() {
			if err := dbClient.Close(context.Background()); err != nil {
				logger.Error("failed to close SurrealDB connection", "error", err)
			}
		}()
		mirror = dbClient
		logger.Info("job mirror enabled", "url", cfg.SurrealDBURL)
	}

	generator, err := buildGenerator(cfg, logger)
	if err != nil {
		logger.Error("failed to build generator", "error", err)
		os.Exit(1)
	}

	svc := service.NewPlanService(job.NewStore(mirror), generator, logger)
	srv := server.New(svc, logger)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight generations store their terminal state.
	svc.Wait()

	logger.Info("server stopped")
}

// buildGenerator wires the Strava -> research -> LLM -> spreadsheet pipeline.
func buildGenerator(cfg config.Config, logger *slog.Logger) (generate.Generator, error) {
	activities, err := strava.New(strava.Config{
		ClientID:     cfg.StravaClientID,
		ClientSecret: cfg.StravaClientSecret,
		AccessToken:  cfg.StravaAccessToken,
		RefreshToken: cfg.StravaRefreshToken,
	})
	if err != nil {
		return nil, err
	}

	// Research is optional: without a key the prompt simply omits ideas.
	var ideas generate.IdeaSource
	if cfg.TavilyAPIKey != "" {
		tavily, err := research.New(cfg.TavilyAPIKey, "")
		if err != nil {
			return nil, err
		}
		ideas = tavily
	} else {
		logger.Info("workout research disabled, no Tavily API key configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	model, err := generate.NewTextModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("plan model ready", "provider", cfg.LLMProvider, "model", model.Name())

	return generate.NewPlanner(activities, ideas, model, cfg.OutputDir, logger), nil
}
