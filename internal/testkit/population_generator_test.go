package testkit

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"biasaudit/domain/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopulationGenerator_Basic(t *testing.T) {
	config := DefaultPopulationConfig()
	generator := NewPopulationGenerator(config.Seed)
	records := generator.Generate(config.Size)

	require.Len(t, records, config.Size)
	for i, r := range records {
		assert.Equal(t, i, r.ID)
		assert.Contains(t, audit.Races, r.Race)
		assert.Contains(t, audit.Genders, r.Gender)
		assert.Contains(t, audit.AgeGroups, r.AgeGroup)
		assert.GreaterOrEqual(t, r.RiskScore, 0.0)
		assert.LessOrEqual(t, r.RiskScore, 100.0)
		assert.Equal(t, math.Trunc(r.RiskScore), r.RiskScore, "score must be integral")
		assert.Equal(t, r.RiskScore >= 65, r.HighRisk)
	}
}

func TestPopulationGenerator_EmptyAndNegative(t *testing.T) {
	generator := NewPopulationGenerator(1)
	assert.Empty(t, generator.Generate(0))
	assert.Empty(t, generator.Generate(-3))
}

func TestPopulationGenerator_Deterministic(t *testing.T) {
	a := NewPopulationGenerator(7).Generate(200)
	b := NewPopulationGenerator(7).Generate(200)
	c := NewPopulationGenerator(8).Generate(200)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestPopulationGenerator_CoversEveryCategory(t *testing.T) {
	records := NewPopulationGenerator(3).Generate(2000)

	seen := map[string]bool{}
	for _, r := range records {
		seen[r.Race] = true
		seen[r.Gender] = true
		seen[r.AgeGroup] = true
	}
	for _, set := range [][]string{audit.Races, audit.Genders, audit.AgeGroups} {
		for _, c := range set {
			assert.True(t, seen[c], "category %q never generated", c)
		}
	}
}

func TestPopulationGenerator_EmbedsDisparity(t *testing.T) {
	records := NewPopulationGenerator(11).Generate(5000)

	mean := func(race string) float64 {
		var sum float64
		var n int
		for _, r := range records {
			if r.Race == race {
				sum += r.RiskScore
				n++
			}
		}
		require.NotZero(t, n)
		return sum / float64(n)
	}

	// Black baseline is 18 points above White, diluted by a third.
	assert.Greater(t, mean("Black")-mean("White"), 4.0)
	assert.Greater(t, mean("Hispanic"), mean("Asian"))
}

func TestBaseline(t *testing.T) {
	assert.InDelta(t, (45.0+50+66)/3, Baseline("White", "Male", "18-25"), 1e-9)
	assert.InDelta(t, (63.0+57+52)/3, Baseline("Black", "Non-binary", "26-35"), 1e-9)
	assert.InDelta(t, 50.0/3, Baseline("Martian", "Male", "unknown"), 1e-9)
}

func TestGaussian_Moments(t *testing.T) {
	generator := NewPopulationGeneratorWithRand(rand.New(rand.NewSource(99)))

	samples := make([]float64, 20000)
	for i := range samples {
		samples[i] = generator.gaussian(0, 8)
	}

	var sum, sq float64
	for _, s := range samples {
		sum += s
		sq += s * s
	}
	mean := sum / float64(len(samples))
	std := math.Sqrt(sq/float64(len(samples)) - mean*mean)

	assert.InDelta(t, 0, mean, 0.25)
	assert.InDelta(t, 8, std, 0.25)
	assert.False(t, slices.ContainsFunc(samples, math.IsNaN))
}
