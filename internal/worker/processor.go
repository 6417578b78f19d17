// Package worker executes normalization jobs end to end: read the upload, run
// the pipeline, persist the artifact, post terminal progress.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/invoice-normalizer/internal/artifacts"
	"github.com/dvloznov/invoice-normalizer/internal/audit"
	"github.com/dvloznov/invoice-normalizer/internal/jobs"
	"github.com/dvloznov/invoice-normalizer/internal/pipeline"
	"github.com/dvloznov/invoice-normalizer/internal/progress"
	"github.com/dvloznov/invoice-normalizer/internal/spreadsheet"
	"github.com/dvloznov/invoice-normalizer/internal/translate"
	"github.com/dvloznov/invoice-normalizer/internal/warehouse"
)

// Processor turns one NormalizeInvoiceJob into a finished artifact.
type Processor struct {
	normalizer *pipeline.Normalizer
	tracker    *progress.Tracker
	audit      audit.Recorder
	artifacts  artifacts.Store
	sink       *warehouse.Sink // optional row mirror, may be nil
	log        zerolog.Logger
}

// NewProcessor wires a processor. sink may be nil to disable warehouse
// mirroring.
func NewProcessor(tr translate.Translator, opts pipeline.TranslateOptions, tracker *progress.Tracker, rec audit.Recorder, store artifacts.Store, sink *warehouse.Sink, log zerolog.Logger) *Processor {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Processor{
		normalizer: pipeline.NewNormalizer(tr, opts, tracker, rec, log),
		tracker:    tracker,
		audit:      rec,
		artifacts:  store,
		sink:       sink,
		log:        log,
	}
}

// HandleJob implements jobs.JobHandler for NormalizeInvoiceJob.
// The output artifact is written only after the final stage succeeded, so a
// failed run leaves nothing partial behind.
func (p *Processor) HandleJob(ctx context.Context, job jobs.Job) error {
	invoiceJob, ok := job.(*jobs.NormalizeInvoiceJob)
	if !ok {
		return fmt.Errorf("unexpected job type: %T", job)
	}

	consumerID, itemID := invoiceJob.ConsumerID, invoiceJob.ItemID

	src, err := spreadsheet.Read(invoiceJob.UploadPath)
	if err != nil {
		p.tracker.Fail(consumerID, itemID, "could not read the uploaded file")
		p.audit.Record(ctx, audit.Event{
			Kind:       audit.KindFailed,
			ConsumerID: consumerID,
			ItemID:     itemID,
			Error:      err.Error(),
		})
		return fmt.Errorf("read upload %q: %w", invoiceJob.UploadPath, err)
	}

	state := &pipeline.State{
		ConsumerID: consumerID,
		ItemID:     itemID,
		Source:     src,
	}

	table, err := p.normalizer.Run(ctx, state)
	if err != nil {
		// Run already posted the failure to the tracker and the recorder.
		return err
	}

	var buf bytes.Buffer
	if err := spreadsheet.Write(table, &buf); err != nil {
		p.tracker.Fail(consumerID, itemID, "could not produce the output file")
		return fmt.Errorf("render artifact: %w", err)
	}

	ref, err := p.artifacts.Save(ctx, artifactName(invoiceJob), buf.Bytes())
	if err != nil {
		p.tracker.Fail(consumerID, itemID, "could not store the output file")
		return fmt.Errorf("save artifact: %w", err)
	}

	if p.sink != nil {
		if err := p.sink.InsertTable(ctx, consumerID, itemID, table); err != nil {
			// Mirroring is best-effort; the artifact is the deliverable.
			p.log.Warn().Err(err).Str("item_id", itemID).Msg("warehouse mirror failed")
		}
	}

	p.tracker.Complete(consumerID, itemID, ref)
	p.audit.Record(ctx, audit.Event{
		Kind:       audit.KindCompleted,
		ConsumerID: consumerID,
		ItemID:     itemID,
		Rows:       len(table.Rows),
		Diags:      len(state.Diags),
	})

	if err := os.Remove(invoiceJob.UploadPath); err != nil {
		p.log.Warn().Err(err).Str("path", invoiceJob.UploadPath).Msg("could not remove upload")
	}

	return nil
}

// artifactName builds "<vendor>/<vendor>_<original base>.xlsx", mirroring the
// per-vendor folders the download side expects.
func artifactName(job *jobs.NormalizeInvoiceJob) string {
	base := strings.TrimSuffix(filepath.Base(job.OriginalFilename), filepath.Ext(job.OriginalFilename))
	if base == "" {
		base = job.ItemID
	}
	return fmt.Sprintf("%s/%s_%s.xlsx", job.ConsumerID, job.ConsumerID, base)
}
