package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/invoice-normalizer/internal/translate"
)

// TranslateOptions configures the translation stage.
type TranslateOptions struct {
	SourceLang string
	TargetLang string

	// Timeout bounds each external call so one unresponsive translation
	// cannot stall the whole table.
	Timeout time.Duration

	// Parallelism caps the number of in-flight calls. Row-level calls are
	// independent, so they may run concurrently; output row order is
	// preserved regardless.
	Parallelism int
}

func (o TranslateOptions) withDefaults() TranslateOptions {
	if o.SourceLang == "" {
		o.SourceLang = DefaultSourceLang
	}
	if o.TargetLang == "" {
		o.TargetLang = DefaultTargetLang
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTranslateTimeout
	}
	if o.Parallelism < 1 {
		o.Parallelism = 1
	}
	return o
}

// EnrichTranslations submits every row's cleaned description to the external
// translator and stores the result. A failed or empty translation degrades to
// echoing the cleaned text for that row only; the table never loses a row.
func EnrichTranslations(ctx context.Context, t *Table, tr translate.Translator, opts TranslateOptions) []Diag {
	opts = opts.withDefaults()

	rowErrs := make([]error, len(t.Rows))
	sem := make(chan struct{}, opts.Parallelism)
	var wg sync.WaitGroup

	for i := range t.Rows {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			rowErrs[i] = translateRow(ctx, &t.Rows[i], tr, opts)
		}(i)
	}
	wg.Wait()

	var diags []Diag
	for i, err := range rowErrs {
		if err != nil {
			diags = append(diags, Diag{Row: i, Stage: StageTranslate, Err: &TranslationError{Err: err}})
		}
	}
	return diags
}

func translateRow(ctx context.Context, row *Row, tr translate.Translator, opts TranslateOptions) error {
	// Fallback first; overwritten only on success.
	row.TranslatedDescription = row.CleanedDescription

	if strings.TrimSpace(row.CleanedDescription) == "" {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	out, err := tr.Translate(callCtx, row.CleanedDescription, opts.SourceLang, opts.TargetLang)
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) == "" {
		return translate.ErrEmptyResult
	}

	row.TranslatedDescription = out
	return nil
}
