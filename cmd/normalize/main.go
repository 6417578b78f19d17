// Command normalize runs the invoice normalization pipeline over a single
// file without the server: read, normalize, write, print a summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dvloznov/invoice-normalizer/internal/audit"
	"github.com/dvloznov/invoice-normalizer/internal/logger"
	"github.com/dvloznov/invoice-normalizer/internal/pipeline"
	"github.com/dvloznov/invoice-normalizer/internal/progress"
	"github.com/dvloznov/invoice-normalizer/internal/spreadsheet"
	"github.com/dvloznov/invoice-normalizer/internal/translate"
)

func main() {
	var (
		in           = flag.String("in", "", "input spreadsheet (.xlsx or .csv)")
		out          = flag.String("out", "", "output .xlsx path (default: <input>_normalized.xlsx)")
		sourceLang   = flag.String("source-lang", pipeline.DefaultSourceLang, "translation source language")
		targetLang   = flag.String("target-lang", pipeline.DefaultTargetLang, "translation target language")
		translateURL = flag.String("translate-url", os.Getenv("TRANSLATE_URL"), "translation endpoint (empty disables translation)")
		timeout      = flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	)
	flag.Parse()

	// Logs go to stderr; stdout carries only the run summary.
	log := logger.NewWithWriter(os.Stderr)

	if *in == "" {
		log.Fatal().Msg("Error: -in is required")
	}
	if *out == "" {
		ext := filepath.Ext(*in)
		*out = strings.TrimSuffix(*in, ext) + "_normalized.xlsx"
	}

	var translator translate.Translator = translate.Noop{}
	if *translateURL != "" {
		translator = translate.NewHTTPClient(*translateURL, os.Getenv("TRANSLATE_API_KEY"), 15*time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	src, err := spreadsheet.Read(*in)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read input file")
	}

	normalizer := pipeline.NewNormalizer(
		translator,
		pipeline.TranslateOptions{
			SourceLang:  *sourceLang,
			TargetLang:  *targetLang,
			Parallelism: pipeline.DefaultTranslateParallelism,
		},
		progress.NewTracker(progress.DefaultGracePeriod),
		audit.Nop{},
		log,
	)

	state := &pipeline.State{
		ConsumerID: "cli",
		ItemID:     filepath.Base(*in),
		Source:     src,
	}

	table, err := normalizer.Run(ctx, state)
	if err != nil {
		log.Fatal().Err(err).Msg("Normalization failed")
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create output file")
	}
	if err := spreadsheet.Write(table, f); err != nil {
		f.Close()
		log.Fatal().Err(err).Msg("Failed to write output file")
	}
	if err := f.Close(); err != nil {
		log.Fatal().Err(err).Msg("Failed to close output file")
	}

	fmt.Printf("Normalized %d rows (%d diagnostics) -> %s\n", len(table.Rows), len(state.Diags), *out)
	for _, d := range state.Diags {
		fmt.Printf("  row %d [%s]: %v\n", d.Row, d.Stage, d.Err)
	}
}
