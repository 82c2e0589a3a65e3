package engine

import (
	"math"
	"testing"

	"github.com/greenfield-games/ecoquest/internal/catalog"
	"github.com/greenfield-games/ecoquest/internal/events"
)

func TestBuildOnOccupiedCellIsRejected(t *testing.T) {
	s := newTestSession()
	before := s.State()

	// The starter solar sits on cell 12.
	if got := s.Build(catalog.Park, 12); got != BuildOccupied {
		t.Fatalf("build = %v, want occupied", got)
	}

	after := s.State()
	if after.Resources.Credits != before.Resources.Credits {
		t.Errorf("rejected build charged credits: %v -> %v", before.Resources.Credits, after.Resources.Credits)
	}
	if len(after.Facilities) != len(before.Facilities) {
		t.Errorf("rejected build placed a facility")
	}
}

func TestBuildWithoutFundsIsRejected(t *testing.T) {
	s := newTestSession()
	s.state.Resources.Credits = 100

	if got := s.Build(catalog.Solar, 3); got != BuildInsufficientFunds {
		t.Fatalf("build = %v, want insufficientFunds", got)
	}

	st := s.State()
	if st.Resources.Credits != 100 {
		t.Errorf("credits changed on rejected build: %v", st.Resources.Credits)
	}
	if len(st.Facilities) != 1 {
		t.Errorf("facility count = %d, want 1", len(st.Facilities))
	}
	if n := len(st.Notifications); n == 0 || st.Notifications[n-1].Severity != SeverityWarn {
		t.Error("expected a warning notification for the rejected build")
	}
}

func TestBuildUnknownTypeIsRejected(t *testing.T) {
	s := newTestSession()
	if got := s.Build("fusion", 3); got != BuildUnknownType {
		t.Fatalf("build = %v, want unknownType", got)
	}
}

func TestBuildEmitsEvent(t *testing.T) {
	s := newTestSession()
	var got []events.Event
	s.Bus().Subscribe(events.TypeBuild, func(e events.Event) {
		got = append(got, e)
	})

	if r := s.Build(catalog.Park, 3); r != BuildOK {
		t.Fatalf("build = %v", r)
	}
	if len(got) != 1 {
		t.Fatalf("build events = %d, want 1", len(got))
	}
	if got[0].Payload["type"] != "park" || got[0].Payload["position"] != 3 {
		t.Errorf("payload = %+v", got[0].Payload)
	}
}

func TestUpgradeChargesCatalogCostAndBumpsEfficiency(t *testing.T) {
	s := newTestSession()
	id := s.State().Facilities[0].ID

	if got := s.Upgrade(id); got != UpgradeOK {
		t.Fatalf("upgrade = %v", got)
	}

	st := s.State()
	f := st.Facilities[0]
	cost := catalog.Lookup(catalog.Solar).UpgradeCost(1)
	approx(t, "credits", st.Resources.Credits, 8200-cost)
	if f.Level != 2 {
		t.Errorf("level = %d, want 2", f.Level)
	}
	approx(t, "efficiency", f.Efficiency, 105)
	approx(t, "capacity", st.Resources.EnergyCapacity, 420+catalog.Lookup(catalog.Solar).CapacityBonus(2))
}

func TestUpgradeRespectsHardEfficiencyCap(t *testing.T) {
	s := newTestSession()
	s.state.Facilities[0].Efficiency = EfficiencyHardCap - 2
	id := s.state.Facilities[0].ID

	if got := s.Upgrade(id); got != UpgradeOK {
		t.Fatalf("upgrade = %v", got)
	}
	if eff := s.State().Facilities[0].Efficiency; eff != EfficiencyHardCap {
		t.Errorf("efficiency = %v, want hard cap %v", eff, float64(EfficiencyHardCap))
	}
}

func TestUpgradeAtMaxLevelIsRejected(t *testing.T) {
	s := newTestSession()
	s.state.Facilities[0].Level = catalog.MaxLevel
	id := s.state.Facilities[0].ID

	if got := s.Upgrade(id); got != UpgradeMaxLevel {
		t.Fatalf("upgrade = %v, want maxLevel", got)
	}
	if s.State().Resources.Credits != 8200 {
		t.Error("max-level rejection charged credits")
	}
}

func TestUpgradeWithoutFundsIsRejected(t *testing.T) {
	s := newTestSession()
	s.state.Resources.Credits = 10
	id := s.state.Facilities[0].ID

	if got := s.Upgrade(id); got != UpgradeInsufficientFunds {
		t.Fatalf("upgrade = %v, want insufficientFunds", got)
	}
	if f := s.State().Facilities[0]; f.Level != 1 {
		t.Errorf("level changed on rejected upgrade: %d", f.Level)
	}
}

func TestUpgradeUnknownFacility(t *testing.T) {
	s := newTestSession()
	if got := s.Upgrade("nope"); got != UpgradeMissing {
		t.Fatalf("upgrade = %v, want missing", got)
	}
}

func TestInstallAddonPaths(t *testing.T) {
	s := newTestSession()
	id := s.State().Facilities[0].ID

	if got := s.InstallAddon("nope", catalog.AddonBattery); got != AddonMissing {
		t.Errorf("missing facility: %v", got)
	}
	if got := s.InstallAddon(id, catalog.AddonAISorter); got != AddonUnknown {
		t.Errorf("addon not offered for solar: %v", got)
	}

	if got := s.InstallAddon(id, catalog.AddonBattery); got != AddonOK {
		t.Fatalf("install = %v", got)
	}
	if got := s.InstallAddon(id, catalog.AddonBattery); got != AddonAlreadyInstalled {
		t.Errorf("second install = %v, want alreadyInstalled", got)
	}

	s.state.Resources.Credits = 10
	if got := s.InstallAddon(id, catalog.AddonInverter); got != AddonInsufficientFunds {
		t.Errorf("broke install = %v, want insufficientFunds", got)
	}
}

func TestToggleFacilityStatusRoundTrip(t *testing.T) {
	s := newTestSession()
	id := s.State().Facilities[0].ID

	if got := s.ToggleFacilityStatus(id); got != StatusNowPaused {
		t.Fatalf("first toggle = %v", got)
	}
	if got := s.ToggleFacilityStatus(id); got != StatusNowActive {
		t.Fatalf("second toggle = %v", got)
	}
	if got := s.ToggleFacilityStatus("nope"); got != StatusMissing {
		t.Errorf("unknown facility = %v", got)
	}
}

func TestBuildingFacilityCannotBeToggled(t *testing.T) {
	s := newTestSession()
	if got := s.Build(catalog.Park, 3); got != BuildOK {
		t.Fatalf("build = %v", got)
	}
	id := s.State().Facilities[1].ID
	if got := s.ToggleFacilityStatus(id); got != StatusInBuild {
		t.Errorf("toggle during construction = %v, want building", got)
	}
}

func TestPolicyToggleIsAsymmetric(t *testing.T) {
	s := newTestSession()

	// eco-education grants +4 on enact but claws back only half on repeal.
	if got := s.TogglePolicy("eco-education"); got != PolicyEnabled {
		t.Fatalf("enable = %v", got)
	}
	approx(t, "eco after enact", s.State().Resources.EcoScore, 72)

	if got := s.TogglePolicy("eco-education"); got != PolicyDisabled {
		t.Fatalf("disable = %v", got)
	}
	approx(t, "eco after repeal", s.State().Resources.EcoScore, 70)

	if got := s.TogglePolicy("eco-education"); got != PolicyEnabled {
		t.Fatalf("re-enable = %v", got)
	}
	approx(t, "eco after re-enact", s.State().Resources.EcoScore, 74)

	if got := s.TogglePolicy("nope"); got != PolicyMissing {
		t.Errorf("unknown policy = %v", got)
	}
}

func TestSetPolicyControlsClamps(t *testing.T) {
	s := newTestSession()
	s.SetPolicyControls(PolicyControls{
		TaxPerNegEnvMonthly:     -10,
		SubsidyPerPosEnvMonthly: -3,
		RegulationStrictness:    2.5,
	})

	got := s.PolicyControlsNow()
	if got.TaxPerNegEnvMonthly != 0 || got.SubsidyPerPosEnvMonthly != 0 {
		t.Errorf("monetary dials not floored: %+v", got)
	}
	if got.RegulationStrictness != 1 {
		t.Errorf("strictness = %v, want 1", got.RegulationStrictness)
	}
}

func TestToggleStartFlipsAndStopsClock(t *testing.T) {
	s := newTestSession()
	if !s.ToggleStart() {
		t.Fatal("first toggle should start")
	}
	st := s.State()
	if !st.Started || st.Outcome != OutcomeRunning || !s.clock.Running() {
		t.Fatalf("after start: started=%v outcome=%s clock=%v", st.Started, st.Outcome, s.clock.Running())
	}

	if s.ToggleStart() {
		t.Fatal("second toggle should pause")
	}
	st = s.State()
	if st.Started || st.Outcome != OutcomeIdle || s.clock.Running() {
		t.Fatalf("after pause: started=%v outcome=%s clock=%v", st.Started, st.Outcome, s.clock.Running())
	}
}

func TestActionsNeverProduceNaN(t *testing.T) {
	s := newTestSession()
	s.ToggleStart()
	s.Build(catalog.Commercial, 1)
	s.Build(catalog.Residential, 2)
	s.TogglePolicy("renewable-incentive")
	for i := 0; i < 40; i++ {
		s.Tick()
	}

	res := s.State().Resources
	for name, v := range map[string]float64{
		"credits":    res.Credits,
		"energy":     res.Energy,
		"capacity":   res.EnergyCapacity,
		"water":      res.Water,
		"population": res.Population,
		"ecoScore":   res.EcoScore,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s is not finite: %v", name, v)
		}
	}
	if res.EcoScore < 0 || res.EcoScore > 100 {
		t.Errorf("eco score out of range: %v", res.EcoScore)
	}
}
