package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/greenfield-games/ecoquest/internal/catalog"
	"github.com/greenfield-games/ecoquest/internal/events"
)

// Session is the single owner of one game's mutable state. Every mutation,
// ticks and user actions alike, serializes on its mutex and swaps in a
// next-state computed from the previous one. Observers attach through the
// injected event bus, never through direct state access.
type Session struct {
	ID string

	mu     sync.Mutex
	state  GameState
	tuning Tuning

	bus      *events.Bus
	notifier Notifier
	clock    *Clock

	// onChange receives a snapshot after every state change,
	// fire-and-forget. The persistence syncer hangs off this.
	onChange func(Snapshot)
}

// NewSession creates a fresh session with the starting city: one level-1
// solar plant and the reference resource pool.
func NewSession(tuning Tuning, bus *events.Bus, notifier Notifier) *Session {
	if bus == nil {
		bus = events.NewBus(events.DefaultCapacity)
	}
	if notifier == nil {
		notifier = SlogNotifier{}
	}

	s := &Session{
		ID:       uuid.NewString(),
		tuning:   tuning,
		bus:      bus,
		notifier: notifier,
		clock:    NewClock(tuning.TickInterval),
	}
	s.state = newGameState()
	recomputeCapacity(&s.state)
	recomputeGoals(&s.state)
	return s
}

// newGameState builds the starting state.
func newGameState() GameState {
	starter := Facility{
		ID:         uuid.NewString(),
		Type:       catalog.Solar,
		Level:      1,
		Position:   12,
		Status:     StatusActive,
		Efficiency: 100,
	}

	pols := catalog.Policies()
	policies := make([]Policy, 0, len(pols))
	for _, p := range pols {
		policies = append(policies, Policy{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Effect:      p.Effect,
		})
	}

	return GameState{
		Outcome: OutcomeIdle,
		Resources: ResourceState{
			Credits:    8200,
			Energy:     240,
			Water:      1500,
			Population: 2600,
			EcoScore:   68,
		},
		Controls: PolicyControls{
			TaxPerNegEnvMonthly:     20,
			SubsidyPerPosEnvMonthly: 10,
			RegulationStrictness:    0.2,
		},
		Facilities: []Facility{starter},
		Policies:   policies,
		Goals:      newGoals(),
	}
}

// Snapshot is the serializable view handed to the persistence collaborator.
type Snapshot struct {
	SessionID     string              `json:"sessionId"`
	Started       bool                `json:"started"`
	Tick          uint64              `json:"tick"`
	Outcome       Outcome             `json:"outcome"`
	Resources     ResourceState       `json:"resources"`
	Controls      PolicyControls      `json:"controls"`
	Facilities    []Facility          `json:"facilities"`
	Policies      []Policy            `json:"policies"`
	Goals         []Goal              `json:"goals"`
	Notifications []NotificationEntry `json:"notifications"`
	EnvWindow     []catalog.EnvVector `json:"envWindow"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// NewSessionFromSnapshot rebuilds a session from a persisted snapshot. The
// restored session always comes back paused; terminal outcomes survive the
// round trip.
func NewSessionFromSnapshot(snap Snapshot, tuning Tuning, bus *events.Bus, notifier Notifier) *Session {
	s := NewSession(tuning, bus, notifier)
	if snap.SessionID != "" {
		s.ID = snap.SessionID
	}

	st := GameState{
		Tick:          snap.Tick,
		Outcome:       snap.Outcome,
		Resources:     snap.Resources,
		Controls:      snap.Controls,
		Facilities:    snap.Facilities,
		Policies:      snap.Policies,
		Goals:         snap.Goals,
		Notifications: snap.Notifications,
		EnvWindow:     snap.EnvWindow,
	}
	if st.Outcome == OutcomeRunning {
		st.Outcome = OutcomeIdle
	}
	for _, v := range st.EnvWindow {
		st.EnvMonthly = st.EnvMonthly.Add(v)
	}
	recomputeCapacity(&st)
	recomputeGoals(&st)

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return s
}

// OnChange sets the fire-and-forget state-change hook.
func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Bus exposes the session's event bus for observers.
func (s *Session) Bus() *events.Bus {
	return s.bus
}

// Tuning returns the constants the session runs with.
func (s *Session) Tuning() Tuning {
	return s.tuning
}

// State returns a deep copy of the current state.
func (s *Session) State() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Snapshot builds the persistence view of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	st := s.state.clone()
	return Snapshot{
		SessionID:     s.ID,
		Started:       st.Started,
		Tick:          st.Tick,
		Outcome:       st.Outcome,
		Resources:     st.Resources,
		Controls:      st.Controls,
		Facilities:    st.Facilities,
		Policies:      st.Policies,
		Goals:         st.Goals,
		Notifications: st.Notifications,
		EnvWindow:     st.EnvWindow,
		UpdatedAt:     time.Now(),
	}
}

// Environment returns the externality-ledger view of the current state.
func (s *Session) Environment() EnvironmentSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return summarizeEnvironment(&s.state)
}

// markChanged pushes a snapshot to the change hook. Called with the mutex
// held; the hook itself must not call back into the session.
func (s *Session) markChanged() {
	if s.onChange == nil {
		return
	}
	snap := s.snapshotLocked()
	fn := s.onChange
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("state-change hook panicked", "panic", r)
			}
		}()
		fn(snap)
	}()
}

// pushNotification appends a bounded notification entry to the state and
// forwards it to the notifier collaborator.
func (s *Session) pushNotification(g *GameState, severity Severity, message string) {
	entry := NotificationEntry{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		Timestamp: time.Now(),
	}
	g.Notifications = append(g.Notifications, entry)
	if limit := s.tuning.NotificationLimit; limit > 0 && len(g.Notifications) > limit {
		g.Notifications = g.Notifications[len(g.Notifications)-limit:]
	}
	notifySafely(s.notifier, entry)
}
