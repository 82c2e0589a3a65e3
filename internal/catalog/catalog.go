// Package catalog holds the static facility, policy, and goal tables that
// drive the Eco-Quest simulation. Everything here is pure data plus pure
// level-parameterized formulas: no state, safe to share across sessions.
package catalog

import "math"

// FacilityType identifies one of the buildable structure kinds.
type FacilityType string

const (
	Solar       FacilityType = "solar"
	Wind        FacilityType = "wind"
	Residential FacilityType = "residential"
	Commercial  FacilityType = "commercial"
	Park        FacilityType = "park"
	Recycling   FacilityType = "recycling"
)

const (
	// MaxLevel is the upgrade ceiling for every facility type.
	MaxLevel = 5

	// BaseEnergyCapacity is the city's energy capacity before any
	// facility capacity bonuses are applied.
	BaseEnergyCapacity = 420
)

// ResourceDelta is the per-tick output of a facility. Zero fields mean the
// facility does not touch that resource.
type ResourceDelta struct {
	Credits    float64
	Energy     float64
	Water      float64
	Population float64
}

// Addon is a one-time purchasable facility enhancement.
type Addon struct {
	ID          string
	Name        string
	Description string
	Cost        float64
}

// Definition describes one facility type. Cost is the one-time build price;
// the formula methods accept any level in [1, MaxLevel]. The same definition
// is consulted by both the action handlers and the tick engine, so build and
// upgrade charges can never diverge from what the catalog advertises.
type Definition struct {
	Type        FacilityType
	DisplayName string
	Description string
	Cost        float64

	maintenance   func(level int) float64
	production    func(level int) ResourceDelta
	capacityBonus func(level int) float64
	ecoImpact     func(level int) float64
	upgradeCost   func(level int) float64

	Addons []Addon
}

// Maintenance returns the per-tick credit upkeep at the given level.
func (d *Definition) Maintenance(level int) float64 { return d.maintenance(level) }

// Production returns the per-tick resource output at the given level.
func (d *Definition) Production(level int) ResourceDelta { return d.production(level) }

// CapacityBonus returns the energy-capacity contribution at the given level.
func (d *Definition) CapacityBonus(level int) float64 { return d.capacityBonus(level) }

// EcoImpact returns the per-tick eco-score delta at the given level.
func (d *Definition) EcoImpact(level int) float64 { return d.ecoImpact(level) }

// UpgradeCost returns the credit price of upgrading level → level+1.
// Growth is geometric: base × rate^level.
func (d *Definition) UpgradeCost(level int) float64 { return d.upgradeCost(level) }

// Addon returns the addon with the given id, or nil if this type has none.
func (d *Definition) Addon(id string) *Addon {
	for i := range d.Addons {
		if d.Addons[i].ID == id {
			return &d.Addons[i]
		}
	}
	return nil
}

// Addon identifiers.
const (
	AddonBattery  = "battery"
	AddonInverter = "inverter"
	AddonAISorter = "ai-sorter"
)

// BatteryCapacityBonus is the flat energy-capacity bump from a battery addon.
const BatteryCapacityBonus = 60

// Production multipliers granted by addons.
const (
	InverterEnergyMul = 1.12
	AISorterOutputMul = 1.18
)

var facilityTypes = []FacilityType{Solar, Wind, Residential, Commercial, Park, Recycling}

// Types returns all facility types in a stable order.
func Types() []FacilityType {
	out := make([]FacilityType, len(facilityTypes))
	copy(out, facilityTypes)
	return out
}

// Valid reports whether t names a known facility type.
func Valid(t FacilityType) bool {
	_, ok := facilities[t]
	return ok
}

// Lookup returns the definition for a facility type, or nil if unknown.
func Lookup(t FacilityType) *Definition {
	return facilities[t]
}

// IsEnergyFacility reports whether the type contributes energy production.
func IsEnergyFacility(t FacilityType) bool {
	return t == Solar || t == Wind
}

var facilities = map[FacilityType]*Definition{
	Solar: {
		Type:        Solar,
		DisplayName: "Solar Plant",
		Description: "Baseline power facility producing steady energy from sunlight.",
		Cost:        1200,
		maintenance: func(level int) float64 { return 50 + float64(level)*12 },
		production: func(level int) ResourceDelta {
			return ResourceDelta{
				Credits: 110 + float64(level)*20,
				Energy:  70 + float64(level)*28,
			}
		},
		capacityBonus: func(level int) float64 { return 40 + float64(level-1)*12 },
		ecoImpact:     func(level int) float64 { return 2.2 + float64(level)*0.8 },
		upgradeCost:   func(level int) float64 { return math.Round(900 * math.Pow(1.55, float64(level))) },
		Addons: []Addon{
			{ID: AddonBattery, Name: "Battery Storage", Description: "Energy capacity +60", Cost: 820},
			{ID: AddonInverter, Name: "High-Efficiency Inverter", Description: "Energy production +12%", Cost: 650},
		},
	},
	Wind: {
		Type:        Wind,
		DisplayName: "Wind Plant",
		Description: "High-output turbines with demanding upkeep.",
		Cost:        1500,
		maintenance: func(level int) float64 { return 70 + float64(level)*20 },
		production: func(level int) ResourceDelta {
			return ResourceDelta{
				Credits: 95 + float64(level)*26,
				Energy:  90 + float64(level)*34,
			}
		},
		capacityBonus: func(level int) float64 { return 35 + float64(level-1)*14 },
		ecoImpact:     func(level int) float64 { return 2.8 + float64(level)*1.0 },
		upgradeCost:   func(level int) float64 { return math.Round(1100 * math.Pow(1.48, float64(level))) },
	},
	Residential: {
		Type:        Residential,
		DisplayName: "Eco Residential Block",
		Description: "Housing district driving population growth and base tax income.",
		Cost:        900,
		maintenance: func(level int) float64 { return 35 + float64(level)*15 },
		production: func(level int) ResourceDelta {
			return ResourceDelta{
				Credits:    140 + float64(level)*40,
				Population: 60 + float64(level)*25,
			}
		},
		capacityBonus: func(int) float64 { return 0 },
		ecoImpact:     func(level int) float64 { return -0.6 * float64(level) },
		upgradeCost:   func(level int) float64 { return math.Round(780 * math.Pow(1.42, float64(level))) },
	},
	Commercial: {
		Type:        Commercial,
		DisplayName: "Commercial District",
		Description: "Major tax revenue at a real environmental cost.",
		Cost:        1100,
		maintenance: func(level int) float64 { return 55 + float64(level)*18 },
		production: func(level int) ResourceDelta {
			return ResourceDelta{
				Credits:    210 + float64(level)*55,
				Population: 20 + float64(level)*12,
			}
		},
		capacityBonus: func(int) float64 { return 0 },
		ecoImpact:     func(level int) float64 { return -1.1 * float64(level) },
		upgradeCost:   func(level int) float64 { return math.Round(960 * math.Pow(1.5, float64(level))) },
	},
	Park: {
		Type:        Park,
		DisplayName: "City Park",
		Description: "Green space lifting citizen satisfaction and the eco score.",
		Cost:        720,
		maintenance: func(level int) float64 { return 25 + float64(level)*8 },
		production: func(level int) ResourceDelta {
			return ResourceDelta{
				Population: 25 + float64(level)*10,
				Water:      -5,
			}
		},
		capacityBonus: func(int) float64 { return 0 },
		ecoImpact:     func(level int) float64 { return 3.5 + float64(level)*1.4 },
		upgradeCost:   func(level int) float64 { return math.Round(620 * math.Pow(1.35, float64(level))) },
	},
	Recycling: {
		Type:        Recycling,
		DisplayName: "Recycling Center",
		Description: "Turns waste streams back into resources.",
		Cost:        1380,
		maintenance: func(level int) float64 { return 48 + float64(level)*16 },
		production: func(level int) ResourceDelta {
			return ResourceDelta{
				Credits: 100 + float64(level)*32,
				Water:   15 + float64(level)*6,
			}
		},
		capacityBonus: func(int) float64 { return 0 },
		ecoImpact:     func(level int) float64 { return 4 + float64(level)*1.6 },
		upgradeCost:   func(level int) float64 { return math.Round(1000 * math.Pow(1.47, float64(level))) },
		Addons: []Addon{
			{ID: AddonAISorter, Name: "AI Sorter", Description: "Recycling output +18%", Cost: 920},
		},
	},
}
