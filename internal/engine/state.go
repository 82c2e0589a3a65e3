// Package engine owns the Eco-Quest session state and the tick-based
// simulation that advances it.
package engine

import (
	"time"

	"github.com/greenfield-games/ecoquest/internal/catalog"
)

// ResourceState is the city's resource ledger. All fields stay finite;
// credits/water are clamped ≥ 0 after every tick, energy to [0, capacity],
// eco score to [0, 100]. Population only accumulates.
type ResourceState struct {
	Credits        float64 `json:"credits"`
	Energy         float64 `json:"energy"`
	EnergyCapacity float64 `json:"energyCapacity"`
	Water          float64 `json:"water"`
	Population     float64 `json:"population"`
	EcoScore       float64 `json:"ecoScore"`
}

// FacilityStatus is the lifecycle state of a placed facility.
type FacilityStatus string

const (
	StatusActive   FacilityStatus = "active"
	StatusPaused   FacilityStatus = "paused"
	StatusBuilding FacilityStatus = "building"
)

// Efficiency drift bounds. Regular drift tops out at 120; upgrades may push
// the stat up to the hard cap of 125.
const (
	EfficiencyFloor    = 60
	EfficiencyDriftCap = 120
	EfficiencyHardCap  = 125

	efficiencyGainPerTick = 1.5
	efficiencyLossPerTick = 2.0
	upgradeEfficiencyBump = 5
)

// Facility is one placed, leveled structure. Position is a grid cell index,
// unique among the session's facilities; the grid itself belongs to the
// placement collaborator.
type Facility struct {
	ID         string               `json:"id"`
	Type       catalog.FacilityType `json:"type"`
	Level      int                  `json:"level"`
	Position   int                  `json:"position"`
	Status     FacilityStatus       `json:"status"`
	Efficiency float64              `json:"efficiency"`
	Addons     []string             `json:"addons,omitempty"`

	// BuildRemaining counts down while Status is building; the facility
	// activates when it reaches zero.
	BuildRemaining int `json:"buildRemaining,omitempty"`
}

// HasAddon reports whether the addon id is installed.
func (f *Facility) HasAddon(id string) bool {
	for _, a := range f.Addons {
		if a == id {
			return true
		}
	}
	return false
}

// Policy is one toggleable ordinance from the catalog. Only Active mutates.
type Policy struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Effect      catalog.PolicyEffect `json:"effect"`
	Active      bool                 `json:"active"`
}

// PolicyControls are the continuous policy dials, read every tick.
// Tax/subsidy are monthly rates per env point; strictness is in [0, 1].
type PolicyControls struct {
	TaxPerNegEnvMonthly     float64 `json:"taxPerNegEnvMonthly"`
	SubsidyPerPosEnvMonthly float64 `json:"subsidyPerPosEnvMonthly"`
	RegulationStrictness    float64 `json:"regulationStrictness"`
}

// Goal tracks one win-condition predicate. Progress is derived from state
// each tick. Reward is informational only.
type Goal struct {
	ID          catalog.GoalID `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Progress    float64        `json:"progress"`
	Target      float64        `json:"target"`
	Reward      float64        `json:"reward"`
}

// Met reports whether the goal predicate is satisfied.
func (g *Goal) Met() bool {
	return g.Progress >= g.Target
}

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarn    Severity = "warn"
	SeverityError   Severity = "error"
)

// NotificationEntry is one user-facing message. The session keeps the most
// recent entries only (FIFO eviction at the configured bound).
type NotificationEntry struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// Outcome is the evaluator's state machine position.
type Outcome string

const (
	OutcomeIdle    Outcome = "idle"
	OutcomeRunning Outcome = "running"
	OutcomeWon     Outcome = "won"
	OutcomeLost    Outcome = "lost"
)

// Terminal reports whether the session has ended.
func (o Outcome) Terminal() bool {
	return o == OutcomeWon || o == OutcomeLost
}

// GameState is the complete mutable simulation state. The Session owns
// exactly one and every tick replaces it wholesale with a next-state
// computed from the previous one.
type GameState struct {
	Started   bool           `json:"started"`
	Tick      uint64         `json:"tick"`
	Outcome   Outcome        `json:"outcome"`
	Resources ResourceState  `json:"resources"`
	Controls  PolicyControls `json:"controls"`

	Facilities    []Facility          `json:"facilities"`
	Policies      []Policy            `json:"policies"`
	Goals         []Goal              `json:"goals"`
	Notifications []NotificationEntry `json:"notifications"`

	// EnvWindow holds the last N per-tick environmental vectors, newest
	// first. EnvMonthly is its elementwise sum, recomputed each tick.
	EnvWindow  []catalog.EnvVector `json:"envWindow"`
	EnvMonthly catalog.EnvVector   `json:"envMonthly"`

	// DailyPrivateIncome is the credit delta of the most recent tick,
	// kept for the externality ledger display.
	DailyPrivateIncome float64 `json:"dailyPrivateIncome"`
}

// clone returns a deep copy of the state. Ticks compute their next state on
// a clone and swap it in atomically.
func (g *GameState) clone() GameState {
	next := *g
	next.Facilities = make([]Facility, len(g.Facilities))
	copy(next.Facilities, g.Facilities)
	for i := range next.Facilities {
		if len(g.Facilities[i].Addons) > 0 {
			next.Facilities[i].Addons = append([]string(nil), g.Facilities[i].Addons...)
		}
	}
	next.Policies = append([]Policy(nil), g.Policies...)
	next.Goals = append([]Goal(nil), g.Goals...)
	next.Notifications = append([]NotificationEntry(nil), g.Notifications...)
	next.EnvWindow = append([]catalog.EnvVector(nil), g.EnvWindow...)
	return next
}

// FacilityByID returns a pointer into Facilities, or nil.
func (g *GameState) FacilityByID(id string) *Facility {
	for i := range g.Facilities {
		if g.Facilities[i].ID == id {
			return &g.Facilities[i]
		}
	}
	return nil
}

// PositionOccupied reports whether a facility already sits on the cell.
func (g *GameState) PositionOccupied(position int) bool {
	for i := range g.Facilities {
		if g.Facilities[i].Position == position {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampMin(v, lo float64) float64 {
	if v < lo {
		return lo
	}
	return v
}

func clampEco(v float64) float64 {
	return clamp(v, 0, 100)
}
