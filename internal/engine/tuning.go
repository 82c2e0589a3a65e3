package engine

import "time"

// Tuning bundles the simulation constants a session runs with. Values come
// from config with these reference defaults.
type Tuning struct {
	// TickInterval is the wall-clock cadence of the simulation clock.
	TickInterval time.Duration

	// EnvWindowSize is the rolling window length that defines one
	// simulated "month" of environmental history.
	EnvWindowSize int

	// NotificationLimit bounds the in-state notification list.
	NotificationLimit int

	// BuildTicks is how many ticks a new facility spends in the
	// building status before activating.
	BuildTicks int

	// Outcome thresholds.
	MinTicksForOutcome  uint64
	LossEnergyThreshold float64
	LossEcoThreshold    float64
	WinEcoThreshold     float64
}

// DefaultTuning returns the reference constants.
func DefaultTuning() Tuning {
	return Tuning{
		TickInterval:        2 * time.Second,
		EnvWindowSize:       30,
		NotificationLimit:   6,
		BuildTicks:          2,
		MinTicksForOutcome:  6,
		LossEnergyThreshold: 5,
		LossEcoThreshold:    10,
		WinEcoThreshold:     90,
	}
}
