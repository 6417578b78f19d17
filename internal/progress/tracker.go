// Package progress implements the shared progress store read by status
// pollers while a normalization run mutates it. All synchronization lives
// behind the Tracker API so callers cannot forget the lock.
package progress

import (
	"sync"
	"time"
)

// DefaultGracePeriod is how long a terminal entry survives if no poller ever
// observes it.
const DefaultGracePeriod = 30 * time.Second

// Entry is the externally visible progress of one (consumer, item) pair.
// Stage and Progress always come from the same update; a reader can never
// observe a torn combination.
type Entry struct {
	Stage    string  `json:"stage"`
	Progress float64 `json:"progress"`

	// ArtifactRef points at the completion artifact once the run finished.
	ArtifactRef string `json:"artifact_ref,omitempty"`

	// Error carries the failure message of a failed run.
	Error string `json:"error,omitempty"`

	// Terminal marks the entry as finished (completed or failed).
	Terminal bool `json:"terminal"`

	UpdatedAt time.Time `json:"updated_at"`
}

type key struct {
	consumerID string
	itemID     string
}

type trackedEntry struct {
	Entry
	evict *time.Timer
}

// Tracker is a mutex-guarded map from (consumerID, itemID) to progress
// entries. The pipeline is the only writer; any number of pollers read
// concurrently. Terminal entries are removed on first observation, or after
// the grace period if nobody ever polls.
type Tracker struct {
	mu      sync.Mutex
	entries map[key]*trackedEntry
	grace   time.Duration
}

// NewTracker creates a tracker with the given grace period for unobserved
// terminal entries. A non-positive grace falls back to DefaultGracePeriod.
func NewTracker(grace time.Duration) *Tracker {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Tracker{
		entries: make(map[key]*trackedEntry),
		grace:   grace,
	}
}

// Update records the current stage and fractional progress for the item,
// creating the entry on first use. A fraction at or above 1.0 is a terminal
// transition.
func (t *Tracker) Update(consumerID, itemID, stage string, fraction float64) {
	t.set(consumerID, itemID, Entry{
		Stage:    stage,
		Progress: clamp(fraction),
		Terminal: fraction >= 1.0,
	})
}

// Complete records the terminal transition with the reference to the produced
// artifact. The entry is immediately fetchable as completed.
func (t *Tracker) Complete(consumerID, itemID, artifactRef string) {
	t.set(consumerID, itemID, Entry{
		Stage:       "completed",
		Progress:    1.0,
		ArtifactRef: artifactRef,
		Terminal:    true,
	})
}

// Fail records a terminal failure with a user-facing message.
func (t *Tracker) Fail(consumerID, itemID, message string) {
	t.set(consumerID, itemID, Entry{
		Stage:    "failed",
		Progress: 1.0,
		Error:    message,
		Terminal: true,
	})
}

// Get returns a copy of the entry for the key. The second return value
// distinguishes "no entry" from "entry exists with progress 0". Observing a
// terminal entry removes it, so a completed run is reported exactly once.
func (t *Tracker) Get(consumerID, itemID string) (Entry, bool) {
	k := key{consumerID, itemID}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[k]
	if !ok {
		return Entry{}, false
	}

	snapshot := e.Entry
	if e.Terminal {
		if e.evict != nil {
			e.evict.Stop()
		}
		delete(t.entries, k)
	}
	return snapshot, true
}

// Len reports the number of live entries. Intended for tests and metrics.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Tracker) set(consumerID, itemID string, next Entry) {
	k := key{consumerID, itemID}
	next.UpdatedAt = time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.entries[k]
	if ok && prev.evict != nil {
		prev.evict.Stop()
	}

	e := &trackedEntry{Entry: next}
	if next.Terminal {
		e.evict = time.AfterFunc(t.grace, func() { t.remove(k, e) })
	}
	t.entries[k] = e
}

// remove deletes the entry only if it is still the one the timer was armed
// for; a newer update for the same key must not be evicted by a stale timer.
func (t *Tracker) remove(k key, e *trackedEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.entries[k]; ok && cur == e {
		delete(t.entries, k)
	}
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
