package pipeline

import (
	"context"

	"github.com/dvloznov/invoice-normalizer/internal/translate"
)

// Step represents a single stage in the normalization pipeline.
type Step interface {
	// Label is the human-readable stage name reported to the progress
	// tracker and the audit recorder.
	Label() string
	Execute(ctx context.Context, state *State) error
}

// State holds the shared state across all pipeline stages for one table.
type State struct {
	// ConsumerID and ItemID key the progress entries for this run
	// (typically vendor name and upload ID).
	ConsumerID string
	ItemID     string

	Source SourceTable
	Table  *Table

	// Diags collects the row-local diagnostics of every stage.
	Diags []Diag
}

// Stage 1: ReconcileStep maps the arbitrary source columns onto the canonical
// schema and builds the typed table.
type ReconcileStep struct{}

func (s *ReconcileStep) Label() string { return StageReconcile }

func (s *ReconcileStep) Execute(ctx context.Context, state *State) error {
	table, diags, err := Reconcile(state.Source)
	if err != nil {
		return err
	}
	state.Table = table
	state.Diags = append(state.Diags, diags...)
	return nil
}

// Stage 2: QuantityStep folds description multipliers into the quantities.
type QuantityStep struct{}

func (s *QuantityStep) Label() string { return StageQuantity }

func (s *QuantityStep) Execute(ctx context.Context, state *State) error {
	state.Diags = append(state.Diags, ResolveQuantities(state.Table)...)
	return nil
}

// Stage 3: PriceStep derives the per-unit price from the extended price and
// the resolved quantity.
type PriceStep struct{}

func (s *PriceStep) Label() string { return StagePrice }

func (s *PriceStep) Execute(ctx context.Context, state *State) error {
	DerivePrices(state.Table)
	return nil
}

// Stage 4: CleanStep runs the description-cleaning cascade. The multiplier
// tokens consumed in stage 2 disappear from the user-facing text here.
type CleanStep struct {
	Cleaner *Cleaner
}

func (s *CleanStep) Label() string { return StageClean }

func (s *CleanStep) Execute(ctx context.Context, state *State) error {
	cleaner := s.Cleaner
	if cleaner == nil {
		cleaner = NewCleaner()
	}
	CleanDescriptions(state.Table, cleaner)
	return nil
}

// Stage 5: TranslateStep enriches every row with a target-language
// description via the external translator.
type TranslateStep struct {
	Translator translate.Translator
	Options    TranslateOptions
}

func (s *TranslateStep) Label() string { return StageTranslate }

func (s *TranslateStep) Execute(ctx context.Context, state *State) error {
	state.Diags = append(state.Diags, EnrichTranslations(ctx, state.Table, s.Translator, s.Options)...)
	return nil
}
