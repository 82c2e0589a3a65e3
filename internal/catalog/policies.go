package catalog

// PolicyEffect is the bundle of deltas a discrete policy carries. The tick
// engine applies these as fractional per-tick nudges while the policy is
// active; toggling applies a one-time eco-score adjustment.
type PolicyEffect struct {
	EcoScore         float64 `json:"ecoScore,omitempty"`
	Credits          float64 `json:"credits,omitempty"`
	EnergyEfficiency float64 `json:"energyEfficiency,omitempty"`
}

// PolicyDef is a toggleable city ordinance with a fixed effect.
type PolicyDef struct {
	ID          string
	Name        string
	Description string
	Effect      PolicyEffect
}

// Policies returns the fixed ordinance set every session starts with.
func Policies() []PolicyDef {
	return []PolicyDef{
		{
			ID:          "renewable-incentive",
			Name:        "Renewable Incentive",
			Description: "City-funded rebates for clean generation.",
			Effect:      PolicyEffect{EcoScore: 5, Credits: -80},
		},
		{
			ID:          "plastic-ban",
			Name:        "Single-Use Plastic Ban",
			Description: "Phases out disposable plastics citywide.",
			Effect:      PolicyEffect{EcoScore: 3, Credits: -30},
		},
		{
			ID:          "smart-grid",
			Name:        "Smart Grid Rollout",
			Description: "Demand-shaping meters squeeze more out of existing capacity.",
			Effect:      PolicyEffect{EnergyEfficiency: 12, Credits: -40},
		},
		{
			ID:          "eco-education",
			Name:        "Eco Education Program",
			Description: "School curriculum on sustainable living.",
			Effect:      PolicyEffect{EcoScore: 4},
		},
	}
}

// GoalID identifies one of the session's win-condition goals.
type GoalID string

const (
	GoalEnergyFacilities GoalID = "energy-facilities"
	GoalEcoScore         GoalID = "eco-score"
	GoalGreenFacilities  GoalID = "green-facilities"
)

// GoalDef is a declarative win-condition predicate over session state.
// Progress is derived every tick, never independently mutated. Reward is
// informational only; no payout path exists.
type GoalDef struct {
	ID          GoalID
	Title       string
	Description string
	Target      float64
	Reward      float64
}

// Goals returns the fixed goal set every session starts with.
func Goals() []GoalDef {
	return []GoalDef{
		{
			ID:          GoalEnergyFacilities,
			Title:       "Power the City",
			Description: "Operate three renewable energy facilities.",
			Target:      3,
			Reward:      1500,
		},
		{
			ID:          GoalEcoScore,
			Title:       "Green Reputation",
			Description: "Raise the eco score to 80.",
			Target:      80,
			Reward:      2000,
		},
		{
			ID:          GoalGreenFacilities,
			Title:       "Circular City",
			Description: "Build two parks or recycling centers.",
			Target:      2,
			Reward:      1200,
		},
	}
}
