package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Event kinds reported over the lifecycle of one normalization run.
const (
	KindIngested       = "ingested"
	KindStageCompleted = "stage_completed"
	KindFailed         = "failed"
	KindCompleted      = "completed"
)

// Event is one discrete lifecycle event of a normalization run. It is opaque
// to the pipeline; retention and storage format belong to the recorder.
type Event struct {
	Kind       string    `json:"kind"`
	ConsumerID string    `json:"consumer_id"`
	ItemID     string    `json:"item_id"`
	Stage      string    `json:"stage,omitempty"`
	Rows       int       `json:"rows,omitempty"`
	Diags      int       `json:"diags,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Recorder receives lifecycle events from the pipeline.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// ZerologRecorder writes audit events as structured log lines.
type ZerologRecorder struct {
	log zerolog.Logger
}

// NewZerologRecorder creates a recorder backed by the given logger.
func NewZerologRecorder(log zerolog.Logger) *ZerologRecorder {
	return &ZerologRecorder{log: log}
}

// Record implements the Recorder interface.
func (r *ZerologRecorder) Record(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	ev := r.log.Info()
	if e.Kind == KindFailed {
		ev = r.log.Error()
	}
	ev.Str("kind", e.Kind).
		Str("consumer_id", e.ConsumerID).
		Str("item_id", e.ItemID).
		Str("stage", e.Stage).
		Int("rows", e.Rows).
		Int("diags", e.Diags).
		Str("error", e.Error).
		Time("at", e.At).
		Msg("audit event")
}

// Nop discards all events. Useful for tests and the one-shot CLI.
type Nop struct{}

// Record implements the Recorder interface.
func (Nop) Record(ctx context.Context, e Event) {}

var _ Recorder = (*ZerologRecorder)(nil)
var _ Recorder = Nop{}
