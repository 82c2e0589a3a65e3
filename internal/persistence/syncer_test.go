package persistence

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/greenfield-games/ecoquest/internal/engine"
)

// fakeWriter records saves and can be told to fail.
type fakeWriter struct {
	mu    sync.Mutex
	saves []engine.Snapshot
	fail  bool
}

func (f *fakeWriter) SaveSnapshot(snap engine.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("disk on fire")
	}
	f.saves = append(f.saves, snap)
	return nil
}

func (f *fakeWriter) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *fakeWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeWriter) last() engine.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves[len(f.saves)-1]
}

func TestSyncerDebouncesBursts(t *testing.T) {
	w := &fakeWriter{}
	sy := NewSyncer(w, 30*time.Millisecond)

	for i := uint64(1); i <= 5; i++ {
		sy.Notify(engine.Snapshot{SessionID: "s", Tick: i})
	}

	time.Sleep(120 * time.Millisecond)
	if got := w.count(); got != 1 {
		t.Fatalf("saves = %d, want the burst collapsed into 1", got)
	}
	if got := w.last().Tick; got != 5 {
		t.Errorf("saved tick = %d, want the newest (5)", got)
	}
}

func TestSyncerSavesAgainAfterQuietPeriod(t *testing.T) {
	w := &fakeWriter{}
	sy := NewSyncer(w, 20*time.Millisecond)

	sy.Notify(engine.Snapshot{Tick: 1})
	time.Sleep(80 * time.Millisecond)
	sy.Notify(engine.Snapshot{Tick: 2})
	time.Sleep(80 * time.Millisecond)

	if got := w.count(); got != 2 {
		t.Errorf("saves = %d, want 2 separate writes", got)
	}
}

func TestSyncerRetriesFailedWriteOnClose(t *testing.T) {
	w := &fakeWriter{}
	w.setFail(true)
	sy := NewSyncer(w, 10*time.Millisecond)

	sy.Notify(engine.Snapshot{Tick: 7})
	time.Sleep(60 * time.Millisecond)
	if got := w.count(); got != 0 {
		t.Fatalf("failing writer recorded %d saves", got)
	}

	// The failed snapshot stays pending; Close flushes it once the store
	// recovers.
	w.setFail(false)
	sy.Close()
	if got := w.count(); got != 1 {
		t.Fatalf("saves after Close = %d, want 1", got)
	}
	if got := w.last().Tick; got != 7 {
		t.Errorf("flushed tick = %d, want 7", got)
	}
}

func TestSyncerCloseFlushesPending(t *testing.T) {
	w := &fakeWriter{}
	sy := NewSyncer(w, time.Hour)

	sy.Notify(engine.Snapshot{Tick: 3})
	sy.Close()

	if got := w.count(); got != 1 {
		t.Fatalf("saves = %d, want the pending snapshot flushed", got)
	}
}

func TestSyncerIgnoresNotifyAfterClose(t *testing.T) {
	w := &fakeWriter{}
	sy := NewSyncer(w, 10*time.Millisecond)
	sy.Close()

	sy.Notify(engine.Snapshot{Tick: 9})
	time.Sleep(50 * time.Millisecond)

	if got := w.count(); got != 0 {
		t.Errorf("saves after Close = %d, want 0", got)
	}
}
