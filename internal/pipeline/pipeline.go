package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/invoice-normalizer/internal/audit"
	"github.com/dvloznov/invoice-normalizer/internal/progress"
	"github.com/dvloznov/invoice-normalizer/internal/translate"
)

// Normalizer runs the invoice normalization pipeline over one source table:
// schema reconciliation, quantity resolution, unit-price derivation,
// description cleaning and translation enrichment, reporting each stage to
// the progress tracker and the audit recorder. All collaborators are injected
// so the pipeline is testable without a filesystem or network.
type Normalizer struct {
	steps   []Step
	tracker *progress.Tracker
	audit   audit.Recorder
	log     zerolog.Logger
}

// NewNormalizer creates the standard 5-stage pipeline.
func NewNormalizer(tr translate.Translator, opts TranslateOptions, tracker *progress.Tracker, rec audit.Recorder, log zerolog.Logger) *Normalizer {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Normalizer{
		steps: []Step{
			&ReconcileStep{},
			&QuantityStep{},
			&PriceStep{},
			&CleanStep{},
			&TranslateStep{Translator: tr, Options: opts},
		},
		tracker: tracker,
		audit:   rec,
		log:     log,
	}
}

// Run executes all stages in order and returns the normalized table. The
// returned error distinguishes a file that is missing required data (schema)
// from an internal stage failure; row-local problems never fail the run and
// end up in state.Diags instead.
//
// Progress spans [0, 1): the final slot is reserved for the caller, which
// posts the terminal entry once the output artifact exists. Cancellation is
// cooperative and checked between stages only.
func (n *Normalizer) Run(ctx context.Context, state *State) (*Table, error) {
	n.audit.Record(ctx, audit.Event{
		Kind:       audit.KindIngested,
		ConsumerID: state.ConsumerID,
		ItemID:     state.ItemID,
		Rows:       len(state.Source.Records),
	})

	// One extra slot keeps stage progress below 1.0 until the artifact is
	// written.
	total := float64(len(n.steps) + 1)

	for i, step := range n.steps {
		if err := ctx.Err(); err != nil {
			return nil, n.fail(ctx, state, step.Label(), err)
		}

		n.report(state, step.Label(), float64(i)/total)

		if err := step.Execute(ctx, state); err != nil {
			return nil, n.fail(ctx, state, step.Label(), err)
		}

		n.report(state, step.Label(), float64(i+1)/total)
		n.audit.Record(ctx, audit.Event{
			Kind:       audit.KindStageCompleted,
			ConsumerID: state.ConsumerID,
			ItemID:     state.ItemID,
			Stage:      step.Label(),
			Rows:       len(state.Table.Rows),
			Diags:      len(state.Diags),
		})
	}

	for _, d := range state.Diags {
		n.log.Warn().
			Int("row", d.Row).
			Str("stage", d.Stage).
			Err(d.Err).
			Msg("row fell back to a default value")
	}

	return state.Table, nil
}

func (n *Normalizer) report(state *State, stage string, fraction float64) {
	if n.tracker != nil {
		n.tracker.Update(state.ConsumerID, state.ItemID, stage, fraction)
	}
}

func (n *Normalizer) fail(ctx context.Context, state *State, stage string, err error) error {
	wrapped := wrapStageError(stage, err)

	if n.tracker != nil {
		n.tracker.Fail(state.ConsumerID, state.ItemID, wrapped.Error())
	}
	n.audit.Record(ctx, audit.Event{
		Kind:       audit.KindFailed,
		ConsumerID: state.ConsumerID,
		ItemID:     state.ItemID,
		Stage:      stage,
		Error:      wrapped.Error(),
	})
	return wrapped
}

// wrapStageError turns a stage failure into a single descriptive error:
// missing required data reads differently from an internal failure, and no
// stack traces leak to the caller.
func wrapStageError(stage string, err error) error {
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return fmt.Errorf("uploaded file is missing required data: %w", err)
	}
	return fmt.Errorf("normalization stage %q failed: %w", stage, err)
}
