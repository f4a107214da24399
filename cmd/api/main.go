package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tally-app/tally/internal/api"
	"github.com/tally-app/tally/internal/infra/bigquery"
	"github.com/tally-app/tally/internal/infra/genai"
	"github.com/tally-app/tally/internal/ledger"
	"github.com/tally-app/tally/internal/logger"
	"github.com/tally-app/tally/internal/prediction"
	"github.com/tally-app/tally/internal/store"
	"github.com/tally-app/tally/internal/store/inmemory"
	"github.com/tally-app/tally/internal/timeline"
)

func main() {
	// Parse command-line flags
	var (
		port    = flag.String("port", "8080", "HTTP server port")
		backend = flag.String("store", envOr("TALLY_STORE", "memory"), "persistence backend: memory or bigquery")
		project = flag.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project id (bigquery backend)")
		dataset = flag.String("dataset", envOr("TALLY_DATASET", "tally"), "BigQuery dataset (bigquery backend)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()
	ctx := context.Background()

	// Pick the persistence backend
	var st store.Store
	switch *backend {
	case "bigquery":
		if *project == "" {
			log.Fatal().Msg("bigquery backend requires -project or GOOGLE_CLOUD_PROJECT")
		}
		bq, err := bigquery.NewStore(ctx, *project, *dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery store")
		}
		defer bq.Close()
		st = bq
	case "memory":
		st = inmemory.NewStore()
	default:
		log.Fatal().Str("store", *backend).Msg("Unknown persistence backend")
	}

	lg := ledger.New(st, log)
	rec := timeline.NewReconciler(st, log)

	// Prediction generation degrades gracefully: without Gemini credentials
	// the accept/dismiss endpoints still work, only generate is unavailable.
	var gen prediction.Generator
	if g, err := genai.NewGenerator(ctx, st, log); err != nil {
		log.Warn().Err(err).Msg("Gemini unavailable - prediction generation disabled")
	} else {
		gen = g
	}
	mgr := prediction.NewManager(st, lg, gen, log)

	srv := api.NewServer(st, lg, rec, mgr, log)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Str("store", *backend).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
