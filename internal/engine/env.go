package engine

import (
	"math"

	"github.com/greenfield-games/ecoquest/internal/catalog"
)

// Externality pricing constants. The regulation penalty scales the negative
// combined impact; the regulation eco bonus partially rewards positive
// impact. Monthly dial rates convert to daily at /30.
const (
	daysPerMonth          = 30
	regulationPenaltyMul  = 0.8
	regulationEcoBonusMul = 0.25
)

// Social-cost display coefficients, money per env point-month. These feed
// the externality ledger only and are deliberately independent of the live
// tax/subsidy math.
const (
	socialCostAir   = 60
	socialCostWater = 80
	socialCostBio   = 50
)

// tickEnvVector sums the environmental contributions of every active
// facility for one tick. Paused and building facilities contribute nothing.
func tickEnvVector(facilities []Facility) catalog.EnvVector {
	var v catalog.EnvVector
	for i := range facilities {
		f := &facilities[i]
		if f.Status != StatusActive {
			continue
		}
		v = v.Add(catalog.EnvContribution(f.Type, f.Level))
	}
	return v
}

// pushEnvWindow prepends the tick vector to the rolling window, dropping the
// oldest entry past the window size, and returns the new window plus its
// elementwise sum (the monthly aggregate).
func pushEnvWindow(window []catalog.EnvVector, v catalog.EnvVector, size int) ([]catalog.EnvVector, catalog.EnvVector) {
	next := make([]catalog.EnvVector, 0, size)
	next = append(next, v)
	for _, w := range window {
		if len(next) == size {
			break
		}
		next = append(next, w)
	}

	var monthly catalog.EnvVector
	for _, w := range next {
		monthly = monthly.Add(w)
	}
	return next, monthly
}

// applyExternalityPricing internalizes the tick's environmental impact into
// the resource ledger: a Pigouvian tax on negative impact, a subsidy on
// positive impact, and a regulation penalty plus partial eco reward scaled
// by strictness.
func applyExternalityPricing(res *ResourceState, controls PolicyControls, tickEnv catalog.EnvVector) {
	combined := tickEnv.Combined()
	negative := math.Max(0, -combined)
	positive := math.Max(0, combined)

	res.Credits -= (controls.TaxPerNegEnvMonthly / daysPerMonth) * negative
	res.Credits += (controls.SubsidyPerPosEnvMonthly / daysPerMonth) * positive
	res.Credits -= controls.RegulationStrictness * negative * regulationPenaltyMul

	if controls.RegulationStrictness > 0 {
		res.EcoScore = clampEco(res.EcoScore + controls.RegulationStrictness*positive*regulationEcoBonusMul)
	}
}

// DailySocialCost converts a monthly environmental aggregate into the daily
// social cost shown in the externality ledger. Only negative impact counts;
// improvements are not monetized here.
func DailySocialCost(envMonthly catalog.EnvVector) float64 {
	negAir := math.Min(0, envMonthly.Air)
	negWater := math.Min(0, envMonthly.Water)
	negBio := math.Min(0, envMonthly.Bio)

	costMonthly := negAir*-socialCostAir + negWater*-socialCostWater + negBio*-socialCostBio
	return math.Round(costMonthly / daysPerMonth)
}

// EnvironmentSummary is the reporting view of environmental state: the
// monthly aggregate, its daily social cost, and the social net once private
// income is subtracted against it.
type EnvironmentSummary struct {
	Monthly         catalog.EnvVector `json:"monthly"`
	SocialCostDaily float64           `json:"socialCostDaily"`
	PrivateDaily    float64           `json:"privateDaily"`
	SocialNetDaily  float64           `json:"socialNetDaily"`
}

// Summarize builds the externality ledger view from state.
func summarizeEnvironment(g *GameState) EnvironmentSummary {
	cost := DailySocialCost(g.EnvMonthly)
	return EnvironmentSummary{
		Monthly:         g.EnvMonthly,
		SocialCostDaily: cost,
		PrivateDaily:    math.Round(g.DailyPrivateIncome),
		SocialNetDaily:  math.Round(g.DailyPrivateIncome - cost),
	}
}
