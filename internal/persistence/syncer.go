package persistence

import (
	"log/slog"
	"sync"
	"time"

	"github.com/greenfield-games/ecoquest/internal/engine"
)

// SnapshotWriter is the slice of Store the syncer needs.
type SnapshotWriter interface {
	SaveSnapshot(snap engine.Snapshot) error
}

// Syncer debounces snapshot writes: rapid state changes collapse into one
// save after a quiet period. Writes happen on a background timer goroutine
// and never block the simulation; a failed write is logged and the snapshot
// is retried on the next state change.
type Syncer struct {
	store    SnapshotWriter
	debounce time.Duration

	mu      sync.Mutex
	pending *engine.Snapshot
	timer   *time.Timer
	closed  bool
}

// NewSyncer creates a syncer with the given debounce interval.
func NewSyncer(store SnapshotWriter, debounce time.Duration) *Syncer {
	if debounce <= 0 {
		debounce = 1400 * time.Millisecond
	}
	return &Syncer{store: store, debounce: debounce}
}

// Notify queues a snapshot for writing. Safe to call from any goroutine.
func (sy *Syncer) Notify(snap engine.Snapshot) {
	sy.mu.Lock()
	defer sy.mu.Unlock()
	if sy.closed {
		return
	}

	sy.pending = &snap
	if sy.timer != nil {
		sy.timer.Stop()
	}
	sy.timer = time.AfterFunc(sy.debounce, sy.flush)
}

func (sy *Syncer) flush() {
	sy.mu.Lock()
	snap := sy.pending
	sy.pending = nil
	sy.mu.Unlock()

	if snap == nil {
		return
	}
	if err := sy.store.SaveSnapshot(*snap); err != nil {
		slog.Warn("session sync failed, will retry on next change", "error", err)
		// Keep the failed snapshot pending so Close still flushes it;
		// a newer Notify simply replaces it.
		sy.mu.Lock()
		if sy.pending == nil && !sy.closed {
			sy.pending = snap
		}
		sy.mu.Unlock()
		return
	}
	slog.Debug("session synced", "tick", snap.Tick)
}

// Close stops the timer and writes any pending snapshot synchronously.
func (sy *Syncer) Close() {
	sy.mu.Lock()
	sy.closed = true
	if sy.timer != nil {
		sy.timer.Stop()
	}
	snap := sy.pending
	sy.pending = nil
	sy.mu.Unlock()

	if snap != nil {
		if err := sy.store.SaveSnapshot(*snap); err != nil {
			slog.Error("final session sync failed", "error", err)
		}
	}
}
