package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/greenfield-games/ecoquest/internal/catalog"
	"github.com/greenfield-games/ecoquest/internal/events"
)

// energyWarnRatio is the capacity fraction above which the grid-saturation
// warning fires.
const energyWarnRatio = 0.95

// ecoMilestone is the eco score whose upward crossing raises a success
// notification.
const ecoMilestone = 80

// Tick advances the simulation by one step. It is a no-op unless the session
// is started. The whole next state is computed from a clone of the previous
// one and swapped in atomically; nothing reads half-updated state.
func (s *Session) Tick() {
	s.mu.Lock()
	if !s.state.Started {
		s.mu.Unlock()
		return
	}

	prev := s.state
	next := prev.clone()
	s.advance(&next, &prev)
	s.state = next

	transition := s.evaluateOutcomeLocked()
	s.markChanged()

	tick := s.state.Tick
	payload := map[string]any{
		"tick":     tick,
		"credits":  math.Round(s.state.Resources.Credits),
		"energy":   math.Round(s.state.Resources.Energy),
		"ecoScore": math.Round(s.state.Resources.EcoScore),
	}
	s.mu.Unlock()

	s.bus.Emit(events.TypeTick, fmt.Sprintf("tick %d", tick), payload)
	s.emitOutcome(transition)
}

// advance computes the next state from the previous one. Step order matters:
// capacity first (so energy clamps against fresh capacity), facility
// economics, discrete policy nudges, externality pricing, clamps, env window
// bookkeeping, goal progress, threshold notifications, tick counter.
func (s *Session) advance(next, prev *GameState) {
	// 1. Capacity is recomputed from scratch every tick, never
	// incrementally, so it cannot drift from the facility list.
	recomputeCapacity(next)
	next.Resources.Energy = clamp(next.Resources.Energy, 0, next.Resources.EnergyCapacity)

	// 2a. Construction countdown.
	for i := range next.Facilities {
		f := &next.Facilities[i]
		if f.Status != StatusBuilding {
			continue
		}
		if f.BuildRemaining > 0 {
			f.BuildRemaining--
		}
		if f.BuildRemaining == 0 {
			f.Status = StatusActive
			def := catalog.Lookup(f.Type)
			s.pushNotification(next, SeverityInfo, fmt.Sprintf("%s is now online", def.DisplayName))
		}
	}

	// 2b. Facility production, upkeep, eco impact, efficiency drift.
	var tickEnv catalog.EnvVector
	for i := range next.Facilities {
		f := &next.Facilities[i]
		def := catalog.Lookup(f.Type)

		switch f.Status {
		case StatusActive:
			delta := facilityOutput(f, def)
			next.Resources.Credits += delta.Credits
			next.Resources.Energy = clamp(next.Resources.Energy+delta.Energy, 0, next.Resources.EnergyCapacity)
			next.Resources.Water += delta.Water
			next.Resources.Population += delta.Population

			next.Resources.Credits -= def.Maintenance(f.Level)
			next.Resources.EcoScore = clampEco(next.Resources.EcoScore + def.EcoImpact(f.Level))

			if f.Efficiency < EfficiencyDriftCap {
				f.Efficiency = math.Min(EfficiencyDriftCap, f.Efficiency+efficiencyGainPerTick)
			}

			tickEnv = tickEnv.Add(catalog.EnvContribution(f.Type, f.Level))
		case StatusPaused:
			// Paused facilities still cost upkeep; facilities under
			// construction cost nothing yet.
			next.Resources.Credits -= def.Maintenance(f.Level)
			f.Efficiency = math.Max(EfficiencyFloor, f.Efficiency-efficiencyLossPerTick)
		case StatusBuilding:
			f.Efficiency = math.Max(EfficiencyFloor, f.Efficiency-efficiencyLossPerTick)
		}
	}

	// 3. Active ordinances apply dampened per-tick nudges, not their full
	// effect; a standing policy must not be revalued at full strength
	// every tick.
	for i := range next.Policies {
		p := &next.Policies[i]
		if !p.Active {
			continue
		}
		next.Resources.Credits += p.Effect.Credits / 10
		next.Resources.EcoScore = clampEco(next.Resources.EcoScore + p.Effect.EcoScore*0.5)
		next.Resources.Energy = clamp(next.Resources.Energy+p.Effect.EnergyEfficiency, 0, next.Resources.EnergyCapacity)
	}

	// 4. Externality pricing against this tick's env vector.
	applyExternalityPricing(&next.Resources, next.Controls, tickEnv)

	// 5. Floor clamps.
	next.Resources.Credits = clampMin(next.Resources.Credits, 0)
	next.Resources.Energy = clamp(next.Resources.Energy, 0, next.Resources.EnergyCapacity)
	next.Resources.Water = clampMin(next.Resources.Water, 0)

	// 6. Environmental history and the ledger's income figure.
	next.EnvWindow, next.EnvMonthly = pushEnvWindow(next.EnvWindow, tickEnv, s.tuning.EnvWindowSize)
	next.DailyPrivateIncome = next.Resources.Credits - prev.Resources.Credits

	// 7. Goal progress from the current snapshot.
	recomputeGoals(next)

	// 8. Rising-edge threshold notifications. Comparing against the
	// previous state keeps a sustained condition from re-firing every tick.
	energyHighNow := next.Resources.Energy >= energyWarnRatio*next.Resources.EnergyCapacity
	energyHighBefore := prev.Resources.Energy >= energyWarnRatio*prev.Resources.EnergyCapacity
	if energyHighNow && !energyHighBefore {
		s.pushNotification(next, SeverityWarn, "Energy storage is nearly full, production is being wasted")
	}
	if next.Resources.EcoScore >= ecoMilestone && prev.Resources.EcoScore < ecoMilestone {
		s.pushNotification(next, SeveritySuccess, "Eco score reached 80, the city is turning green")
	}

	// 9. Advance the clock.
	next.Tick++

	if next.Tick%30 == 0 {
		slog.Info("monthly report",
			"tick", next.Tick,
			"credits", math.Round(next.Resources.Credits),
			"energy", math.Round(next.Resources.Energy),
			"eco_score", math.Round(next.Resources.EcoScore),
			"population", math.Round(next.Resources.Population),
			"env_monthly", math.Round(next.EnvMonthly.Combined()),
			"facilities", len(next.Facilities),
		)
	}
}

// recomputeCapacity derives energy capacity from the base constant plus
// every facility's level bonus and installed battery addons. Pure function
// of the facility list.
func recomputeCapacity(g *GameState) {
	capacity := float64(catalog.BaseEnergyCapacity)
	for i := range g.Facilities {
		f := &g.Facilities[i]
		capacity += catalog.Lookup(f.Type).CapacityBonus(f.Level)
		if f.HasAddon(catalog.AddonBattery) {
			capacity += catalog.BatteryCapacityBonus
		}
	}
	g.Resources.EnergyCapacity = capacity
}

// facilityOutput applies addon multipliers to the catalog production.
func facilityOutput(f *Facility, def *catalog.Definition) catalog.ResourceDelta {
	delta := def.Production(f.Level)
	if f.HasAddon(catalog.AddonInverter) {
		delta.Energy *= catalog.InverterEnergyMul
	}
	if f.HasAddon(catalog.AddonAISorter) {
		delta.Credits *= catalog.AISorterOutputMul
		delta.Water *= catalog.AISorterOutputMul
	}
	return delta
}
