// Package events provides the in-process publish/subscribe log of discrete
// game events. The bus is owned by the session and injected into every
// observer (persistence sync, the websocket feed, tests); it is never
// reached through a global.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type classifies a game event.
type Type string

const (
	TypeTick    Type = "tick"
	TypeBuild   Type = "build"
	TypeUpgrade Type = "upgrade"
	TypePolicy  Type = "policy"
	TypeWin     Type = "win"
	TypeLose    Type = "lose"
)

// Event is one discrete occurrence in the session.
type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Handler receives events synchronously on Emit.
type Handler func(Event)

// DefaultCapacity is the ring-buffer size used by NewBus.
const DefaultCapacity = 30

// Bus is a fixed-capacity ring buffer of events with synchronous fan-out.
// Oldest entries are evicted on overflow. Safe for concurrent use.
type Bus struct {
	mu       sync.Mutex
	buf      []Event
	start    int // index of oldest entry
	count    int
	nextSub  int
	handlers map[Type]map[int]Handler
}

// NewBus creates a bus with the given ring capacity. Capacity ≤ 0 falls back
// to DefaultCapacity.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		buf:      make([]Event, capacity),
		handlers: make(map[Type]map[int]Handler),
	}
}

// Emit appends an event to the ring and synchronously notifies every
// subscriber registered for its type. A panicking subscriber is logged and
// skipped; it never blocks the others or corrupts the buffer.
func (b *Bus) Emit(t Type, message string, payload map[string]any) Event {
	e := Event{
		ID:        uuid.NewString(),
		Type:      t,
		Message:   message,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	b.mu.Lock()
	if b.count == len(b.buf) {
		// Overwrite the oldest entry.
		b.buf[b.start] = e
		b.start = (b.start + 1) % len(b.buf)
	} else {
		b.buf[(b.start+b.count)%len(b.buf)] = e
		b.count++
	}
	var subs []Handler
	for _, h := range b.handlers[t] {
		subs = append(subs, h)
	}
	b.mu.Unlock()

	for _, h := range subs {
		safeInvoke(h, e)
	}
	return e
}

func safeInvoke(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event subscriber panicked", "type", e.Type, "panic", r)
		}
	}()
	h(e)
}

// Subscribe registers a handler for one event type and returns an idempotent
// unsubscribe closure.
func (b *Bus) Subscribe(t Type, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++
	if b.handlers[t] == nil {
		b.handlers[t] = make(map[int]Handler)
	}
	b.handlers[t][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[t], id)
	}
}

// SubscribeAll registers a handler for every known event type.
func (b *Bus) SubscribeAll(h Handler) (unsubscribe func()) {
	types := []Type{TypeTick, TypeBuild, TypeUpgrade, TypePolicy, TypeWin, TypeLose}
	unsubs := make([]func(), 0, len(types))
	for _, t := range types {
		unsubs = append(unsubs, b.Subscribe(t, h))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// History returns a snapshot copy of the current ring contents, oldest first.
func (b *Bus) History() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Event, 0, b.count)
	for i := 0; i < b.count; i++ {
		out = append(out, b.buf[(b.start+i)%len(b.buf)])
	}
	return out
}

// Len returns the number of events currently held.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
