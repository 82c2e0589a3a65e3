package catalog

// EnvVector is an {air, water, bio} environmental impact triple. Positive
// values are improvements, negative values are degradation.
type EnvVector struct {
	Air   float64 `json:"air"`
	Water float64 `json:"water"`
	Bio   float64 `json:"bio"`
}

// Add returns the elementwise sum of two vectors.
func (v EnvVector) Add(o EnvVector) EnvVector {
	return EnvVector{Air: v.Air + o.Air, Water: v.Water + o.Water, Bio: v.Bio + o.Bio}
}

// Scale returns the vector multiplied by f.
func (v EnvVector) Scale(f float64) EnvVector {
	return EnvVector{Air: v.Air * f, Water: v.Water * f, Bio: v.Bio * f}
}

// Combined is the scalar total impact air+water+bio.
func (v EnvVector) Combined() float64 {
	return v.Air + v.Water + v.Bio
}

// envCoefficients maps each facility type to its per-level environmental
// contribution. Renewable and green facilities are net-positive; housing and
// commerce are net-negative.
var envCoefficients = map[FacilityType]EnvVector{
	Solar:       {Air: 0.8, Water: 0.0, Bio: 0.2},
	Wind:        {Air: 1.1, Water: 0.0, Bio: 0.15},
	Residential: {Air: -0.5, Water: -0.4, Bio: -0.2},
	Commercial:  {Air: -0.9, Water: -0.5, Bio: -0.3},
	Park:        {Air: 0.6, Water: 0.3, Bio: 1.2},
	Recycling:   {Air: 0.5, Water: 1.0, Bio: 0.4},
}

// EnvContribution returns the per-tick environmental vector for one facility
// of the given type and level: coefficient × level.
func EnvContribution(t FacilityType, level int) EnvVector {
	return envCoefficients[t].Scale(float64(level))
}
