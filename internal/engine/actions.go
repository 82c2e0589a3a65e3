package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/greenfield-games/ecoquest/internal/catalog"
	"github.com/greenfield-games/ecoquest/internal/events"
)

// Action results are discriminated tags, never errors: rejected commands are
// expected business outcomes and leave the state untouched.

// BuildResult is the outcome of a build command.
type BuildResult string

const (
	BuildOK                BuildResult = "built"
	BuildOccupied          BuildResult = "occupied"
	BuildInsufficientFunds BuildResult = "insufficientFunds"
	BuildUnknownType       BuildResult = "unknownType"
)

// UpgradeResult is the outcome of an upgrade command.
type UpgradeResult string

const (
	UpgradeOK                UpgradeResult = "upgraded"
	UpgradeMaxLevel          UpgradeResult = "maxLevel"
	UpgradeInsufficientFunds UpgradeResult = "insufficientFunds"
	UpgradeMissing           UpgradeResult = "missing"
)

// AddonResult is the outcome of an addon installation.
type AddonResult string

const (
	AddonOK                AddonResult = "installed"
	AddonAlreadyInstalled  AddonResult = "alreadyInstalled"
	AddonInsufficientFunds AddonResult = "insufficientFunds"
	AddonMissing           AddonResult = "missing"
	AddonUnknown           AddonResult = "unknownAddon"
)

// StatusResult is the outcome of a facility pause/resume toggle.
type StatusResult string

const (
	StatusNowActive StatusResult = "active"
	StatusNowPaused StatusResult = "paused"
	StatusInBuild   StatusResult = "building"
	StatusMissing   StatusResult = "missing"
)

// PolicyResult is the outcome of a discrete policy toggle.
type PolicyResult string

const (
	PolicyEnabled  PolicyResult = "enabled"
	PolicyDisabled PolicyResult = "disabled"
	PolicyMissing  PolicyResult = "missing"
)

// ToggleStart flips the simulation between running and paused and returns
// the new started flag. A session with a terminal outcome stays stopped.
func (s *Session) ToggleStart() bool {
	s.mu.Lock()
	if s.state.Outcome.Terminal() {
		s.mu.Unlock()
		slog.Info("start ignored, session already decided", "outcome", s.state.Outcome)
		return false
	}

	if s.state.Started {
		s.state.Started = false
		s.state.Outcome = OutcomeIdle
		s.clock.Stop()
		tick := s.state.Tick
		s.markChanged()
		s.mu.Unlock()
		slog.Info("simulation paused", "tick", tick)
		return false
	}

	s.state.Started = true
	s.state.Outcome = OutcomeRunning
	s.markChanged()
	s.mu.Unlock()

	s.clock.Start(s.Tick)
	slog.Info("simulation started")
	return true
}

// Build places a new facility of the given type on the grid cell. The cell
// must be free and the build cost affordable; the facility starts in the
// building status and activates after the construction countdown.
func (s *Session) Build(t catalog.FacilityType, position int) BuildResult {
	def := catalog.Lookup(t)
	if def == nil {
		slog.Warn("build rejected, unknown facility type", "type", t)
		return BuildUnknownType
	}

	s.mu.Lock()
	if s.state.PositionOccupied(position) {
		s.mu.Unlock()
		return BuildOccupied
	}
	if s.state.Resources.Credits < def.Cost {
		s.pushNotification(&s.state, SeverityWarn, fmt.Sprintf("Not enough credits for a %s", def.DisplayName))
		s.mu.Unlock()
		return BuildInsufficientFunds
	}

	f := Facility{
		ID:         uuid.NewString(),
		Type:       t,
		Level:      1,
		Position:   position,
		Status:     StatusBuilding,
		Efficiency: 100,

		BuildRemaining: s.tuning.BuildTicks,
	}
	if f.BuildRemaining <= 0 {
		f.Status = StatusActive
	}

	s.state.Resources.Credits -= def.Cost
	s.state.Facilities = append(s.state.Facilities, f)
	recomputeCapacity(&s.state)
	recomputeGoals(&s.state)
	s.pushNotification(&s.state, SeverityInfo, fmt.Sprintf("%s under construction", def.DisplayName))
	s.markChanged()
	s.mu.Unlock()

	s.bus.Emit(events.TypeBuild, fmt.Sprintf("built %s", t), map[string]any{
		"facilityId": f.ID,
		"type":       string(t),
		"position":   position,
		"cost":       def.Cost,
	})
	return BuildOK
}

// Upgrade raises a facility one level, charging the catalog's geometric
// upgrade cost. The work crew also tunes the facility up a notch, past the
// regular drift ceiling if it was already there.
func (s *Session) Upgrade(facilityID string) UpgradeResult {
	s.mu.Lock()
	f := s.state.FacilityByID(facilityID)
	if f == nil {
		s.mu.Unlock()
		slog.Warn("upgrade rejected, no such facility", "facility_id", facilityID)
		return UpgradeMissing
	}

	def := catalog.Lookup(f.Type)
	if f.Level >= catalog.MaxLevel {
		s.pushNotification(&s.state, SeverityInfo, fmt.Sprintf("%s is already at maximum level", def.DisplayName))
		s.mu.Unlock()
		return UpgradeMaxLevel
	}

	cost := def.UpgradeCost(f.Level)
	if s.state.Resources.Credits < cost {
		s.pushNotification(&s.state, SeverityWarn, fmt.Sprintf("Not enough credits to upgrade %s", def.DisplayName))
		s.mu.Unlock()
		return UpgradeInsufficientFunds
	}

	s.state.Resources.Credits -= cost
	f.Level++
	f.Efficiency = math.Min(EfficiencyHardCap, f.Efficiency+upgradeEfficiencyBump)
	recomputeCapacity(&s.state)
	recomputeGoals(&s.state)
	s.pushNotification(&s.state, SeveritySuccess, fmt.Sprintf("%s upgraded to level %d", def.DisplayName, f.Level))

	id, level := f.ID, f.Level
	s.markChanged()
	s.mu.Unlock()

	s.bus.Emit(events.TypeUpgrade, fmt.Sprintf("upgraded %s to level %d", def.Type, level), map[string]any{
		"facilityId": id,
		"level":      level,
		"cost":       cost,
	})
	return UpgradeOK
}

// InstallAddon purchases a one-time facility addon. Each addon installs at
// most once per facility.
func (s *Session) InstallAddon(facilityID, addonID string) AddonResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.state.FacilityByID(facilityID)
	if f == nil {
		slog.Warn("addon rejected, no such facility", "facility_id", facilityID)
		return AddonMissing
	}

	def := catalog.Lookup(f.Type)
	addon := def.Addon(addonID)
	if addon == nil {
		slog.Warn("addon rejected, not offered for this type", "type", f.Type, "addon", addonID)
		return AddonUnknown
	}
	if f.HasAddon(addonID) {
		return AddonAlreadyInstalled
	}
	if s.state.Resources.Credits < addon.Cost {
		s.pushNotification(&s.state, SeverityWarn, fmt.Sprintf("Not enough credits for %s", addon.Name))
		return AddonInsufficientFunds
	}

	s.state.Resources.Credits -= addon.Cost
	f.Addons = append(f.Addons, addonID)
	recomputeCapacity(&s.state)
	s.pushNotification(&s.state, SeveritySuccess, fmt.Sprintf("%s installed on %s", addon.Name, def.DisplayName))
	s.markChanged()
	return AddonOK
}

// ToggleFacilityStatus pauses an active facility or resumes a paused one.
// Facilities under construction cannot be toggled.
func (s *Session) ToggleFacilityStatus(facilityID string) StatusResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.state.FacilityByID(facilityID)
	if f == nil {
		slog.Warn("status toggle rejected, no such facility", "facility_id", facilityID)
		return StatusMissing
	}

	switch f.Status {
	case StatusBuilding:
		return StatusInBuild
	case StatusActive:
		f.Status = StatusPaused
		s.markChanged()
		return StatusNowPaused
	default:
		f.Status = StatusActive
		s.markChanged()
		return StatusNowActive
	}
}

// TogglePolicy flips a discrete ordinance. Activation applies the full
// one-time eco bonus; deactivation claws back only half of it. The
// asymmetry is intentional: repealing an ordinance does not undo all the
// goodwill it built.
func (s *Session) TogglePolicy(policyID string) PolicyResult {
	s.mu.Lock()
	var p *Policy
	for i := range s.state.Policies {
		if s.state.Policies[i].ID == policyID {
			p = &s.state.Policies[i]
			break
		}
	}
	if p == nil {
		s.mu.Unlock()
		slog.Warn("policy toggle rejected, unknown policy", "policy_id", policyID)
		return PolicyMissing
	}

	var result PolicyResult
	if p.Active {
		p.Active = false
		s.state.Resources.EcoScore = clampEco(s.state.Resources.EcoScore - p.Effect.EcoScore*0.5)
		s.pushNotification(&s.state, SeverityInfo, fmt.Sprintf("%s repealed", p.Name))
		result = PolicyDisabled
	} else {
		p.Active = true
		s.state.Resources.EcoScore = clampEco(s.state.Resources.EcoScore + p.Effect.EcoScore)
		s.pushNotification(&s.state, SeverityInfo, fmt.Sprintf("%s enacted", p.Name))
		result = PolicyEnabled
	}

	name := p.Name
	s.markChanged()
	s.mu.Unlock()

	s.bus.Emit(events.TypePolicy, fmt.Sprintf("%s %s", name, result), map[string]any{
		"policyId": policyID,
		"active":   result == PolicyEnabled,
	})
	return result
}

// SetPolicyControls replaces the continuous policy dials. Strictness is
// clamped into [0, 1]; the monetary dials are floored at zero.
func (s *Session) SetPolicyControls(controls PolicyControls) {
	controls.TaxPerNegEnvMonthly = clampMin(controls.TaxPerNegEnvMonthly, 0)
	controls.SubsidyPerPosEnvMonthly = clampMin(controls.SubsidyPerPosEnvMonthly, 0)
	controls.RegulationStrictness = clamp(controls.RegulationStrictness, 0, 1)

	s.mu.Lock()
	s.state.Controls = controls
	s.markChanged()
	s.mu.Unlock()
}

// PolicyControlsNow returns the current dial settings.
func (s *Session) PolicyControlsNow() PolicyControls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Controls
}
