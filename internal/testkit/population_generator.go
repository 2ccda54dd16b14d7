package testkit

import (
	"math"
	"math/rand"

	"biasaudit/domain/audit"
)

// Baseline score tables. Some categories sit structurally higher than others
// so the generated population carries a measurable disparity.
var (
	raceBaseline = map[string]float64{
		"White": 45, "Black": 63, "Hispanic": 59, "Asian": 40, "Other": 55,
	}
	genderBaseline = map[string]float64{
		"Male": 50, "Female": 48, "Non-binary": 57,
	}
	ageBaseline = map[string]float64{
		"18-25": 66, "26-35": 52, "36-50": 44, "51-65": 48, "65+": 55,
	}
)

const (
	scoreNoiseStdDev = 8.0
	badRateScale     = 200.0
	badRateFloor     = 0.15
)

// PopulationConfig configures the synthetic population generator
type PopulationConfig struct {
	Size int   `json:"size"`
	Seed int64 `json:"seed"`
}

// DefaultPopulationConfig returns the dashboard's default population
func DefaultPopulationConfig() PopulationConfig {
	return PopulationConfig{
		Size: 500,
		Seed: 42,
	}
}

// PopulationGenerator produces randomized, demographically labeled records
// for demos. It is not safe for concurrent use.
type PopulationGenerator struct {
	rng *rand.Rand
}

// NewPopulationGenerator creates a generator with its own seeded stream
func NewPopulationGenerator(seed int64) *PopulationGenerator {
	return NewPopulationGeneratorWithRand(rand.New(rand.NewSource(seed)))
}

// NewPopulationGeneratorWithRand creates a generator drawing from rng
func NewPopulationGeneratorWithRand(rng *rand.Rand) *PopulationGenerator {
	return &PopulationGenerator{rng: rng}
}

// Generate returns n records with IDs 0..n-1. n <= 0 yields an empty slice.
func (g *PopulationGenerator) Generate(n int) []audit.Record {
	if n <= 0 {
		return []audit.Record{}
	}

	records := make([]audit.Record, n)
	for id := 0; id < n; id++ {
		race := g.pick(audit.Races)
		gender := g.pick(audit.Genders)
		ageGroup := g.pick(audit.AgeGroups)

		base := Baseline(race, gender, ageGroup)
		score := clamp(math.Round(base+g.gaussian(0, scoreNoiseStdDev)), 0, 100)
		actualBad := g.rng.Float64() < base/badRateScale+badRateFloor

		records[id] = audit.NewRecord(id, race, gender, ageGroup, score, actualBad)
	}
	return records
}

// Baseline is the unweighted mean of the three lookup tables. Unknown
// categories contribute zero.
func Baseline(race, gender, ageGroup string) float64 {
	return (raceBaseline[race] + genderBaseline[gender] + ageBaseline[ageGroup]) / 3
}

func (g *PopulationGenerator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}

// gaussian draws from N(mean, std) with the Box-Muller transform. Both
// uniforms are kept strictly positive so the log is finite.
func (g *PopulationGenerator) gaussian(mean, std float64) float64 {
	u := 0.0
	for u == 0 {
		u = g.rng.Float64()
	}
	v := 0.0
	for v == 0 {
		v = g.rng.Float64()
	}
	return mean + std*math.Sqrt(-2*math.Log(u))*math.Cos(2*math.Pi*v)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
