package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/invoice-normalizer/internal/api/handlers"
	"github.com/dvloznov/invoice-normalizer/internal/api/middleware"
	"github.com/dvloznov/invoice-normalizer/internal/artifacts"
	"github.com/dvloznov/invoice-normalizer/internal/audit"
	"github.com/dvloznov/invoice-normalizer/internal/jobs/inmemory"
	"github.com/dvloznov/invoice-normalizer/internal/logger"
	"github.com/dvloznov/invoice-normalizer/internal/pipeline"
	"github.com/dvloznov/invoice-normalizer/internal/progress"
	"github.com/dvloznov/invoice-normalizer/internal/translate"
	"github.com/dvloznov/invoice-normalizer/internal/worker"
)

func main() {
	var (
		port       = flag.String("port", "8080", "HTTP server port")
		dataDir    = flag.String("data-dir", "data", "base directory for uploads and artifacts")
		workers    = flag.Int("workers", 2, "number of concurrent normalization workers")
		sourceLang = flag.String("source-lang", envOr("TRANSLATE_SOURCE", pipeline.DefaultSourceLang), "translation source language")
		targetLang = flag.String("target-lang", envOr("TRANSLATE_TARGET", pipeline.DefaultTargetLang), "translation target language")
	)
	flag.Parse()

	log := logger.New()

	uploadDir := *dataDir + "/uploads"
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create upload directory")
	}

	artifactStore, err := artifacts.NewLocalStore(*dataDir + "/artifacts")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create artifact store")
	}

	translator := buildTranslator(log)

	tracker := progress.NewTracker(progress.DefaultGracePeriod)
	recorder := audit.NewZerologRecorder(log)

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, *workers, jobStore)

	processor := worker.NewProcessor(
		translator,
		pipeline.TranslateOptions{
			SourceLang:  *sourceLang,
			TargetLang:  *targetLang,
			Parallelism: pipeline.DefaultTranslateParallelism,
		},
		tracker, recorder, artifactStore, nil, log,
	)

	// Same-process worker pool; a separate deployment can run cmd/worker
	// against a shared broker instead.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	if err := jobQueue.Start(workerCtx, processor.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}

	h := handlers.NewInvoicesHandler(jobQueue, jobStore, tracker, artifactStore, uploadDir)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/invoices", h.Upload)
	mux.HandleFunc("GET /api/invoices/status", h.Status)
	mux.HandleFunc("GET /api/invoices/download", h.Download)
	mux.HandleFunc("GET /api/jobs", h.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", h.GetJob)

	var handler http.Handler = mux
	handler = middleware.Logger(log)(handler)
	handler = middleware.Recovery(log)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.CORS(handler)

	srv := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Queue shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}

// buildTranslator picks the configured translation backend: an HTTP endpoint
// (TRANSLATE_URL), Gemini (TRANSLATE_BACKEND=gemini), or echo-only when
// nothing is configured.
func buildTranslator(log zerolog.Logger) translate.Translator {
	switch {
	case os.Getenv("TRANSLATE_URL") != "":
		return translate.NewHTTPClient(os.Getenv("TRANSLATE_URL"), os.Getenv("TRANSLATE_API_KEY"), 15*time.Second)
	case os.Getenv("TRANSLATE_BACKEND") == "gemini":
		return translate.NewGemini(os.Getenv("TRANSLATE_MODEL"))
	default:
		log.Warn().Msg("No translation backend configured - descriptions will not be translated")
		return translate.Noop{}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
