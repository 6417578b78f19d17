package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/invoice-normalizer/internal/artifacts"
	"github.com/dvloznov/invoice-normalizer/internal/audit"
	"github.com/dvloznov/invoice-normalizer/internal/jobs/inmemory"
	"github.com/dvloznov/invoice-normalizer/internal/logger"
	"github.com/dvloznov/invoice-normalizer/internal/pipeline"
	"github.com/dvloznov/invoice-normalizer/internal/progress"
	"github.com/dvloznov/invoice-normalizer/internal/translate"
	"github.com/dvloznov/invoice-normalizer/internal/warehouse"
	"github.com/dvloznov/invoice-normalizer/internal/worker"
)

func main() {
	var (
		dataDir   = flag.String("data-dir", "data", "base directory for artifacts")
		workers   = flag.Int("workers", 2, "number of concurrent normalization workers")
		bucket    = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for artifacts (or set GCS_BUCKET); empty keeps artifacts local")
		bqProject = flag.String("bq-project", os.Getenv("BQ_PROJECT"), "BigQuery project for row mirroring (or set BQ_PROJECT); empty disables it")
		bqDataset = flag.String("bq-dataset", envOr("BQ_DATASET", "invoices"), "BigQuery dataset for row mirroring")
		bqTable   = flag.String("bq-table", envOr("BQ_TABLE", "normalized_rows"), "BigQuery table for row mirroring")
	)
	flag.Parse()

	log := logger.New()
	ctx := context.Background()

	var artifactStore artifacts.Store
	if *bucket != "" {
		gcsStore, err := artifacts.NewGCSStore(ctx, *bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS artifact store")
		}
		defer gcsStore.Close()
		artifactStore = gcsStore
	} else {
		localStore, err := artifacts.NewLocalStore(*dataDir + "/artifacts")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create local artifact store")
		}
		artifactStore = localStore
	}

	var sink *warehouse.Sink
	if *bqProject != "" {
		var err error
		sink, err = warehouse.NewSink(ctx, *bqProject, *bqDataset, *bqTable)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create warehouse sink")
		}
		defer sink.Close()
	}

	translator := buildTranslator(log)

	tracker := progress.NewTracker(progress.DefaultGracePeriod)
	processor := worker.NewProcessor(
		translator,
		pipeline.TranslateOptions{
			SourceLang:  os.Getenv("TRANSLATE_SOURCE"),
			TargetLang:  os.Getenv("TRANSLATE_TARGET"),
			Parallelism: pipeline.DefaultTranslateParallelism,
		},
		tracker, audit.NewZerologRecorder(log), artifactStore, sink, log,
	)

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, *workers, jobStore)

	log.Info().Msg("Starting worker service")

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := jobQueue.Start(workerCtx, processor.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := jobQueue.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Queue shutdown failed")
	}
}

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
