package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestNewRecord_HighRiskBoundary(t *testing.T) {
	assert.True(t, NewRecord(1, "White", "Male", "18-25", 65, false).HighRisk)
	assert.False(t, NewRecord(2, "White", "Male", "18-25", 64, false).HighRisk)
	assert.True(t, NewRecord(3, "White", "Male", "18-25", 100, false).HighRisk)
	assert.False(t, NewRecord(4, "White", "Male", "18-25", 0, true).HighRisk)
}

func TestClassifyDI_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		di   *float64
		want Tier
	}{
		{"nil", nil, TierUnknown},
		{"lower fair bound", ptr(0.8), TierFair},
		{"just under fair", ptr(0.79), TierBorderline},
		{"lower borderline bound", ptr(0.65), TierBorderline},
		{"just under borderline", ptr(0.649), TierDiscriminatory},
		{"upper fair bound", ptr(1.25), TierFair},
		{"just over fair", ptr(1.26), TierBorderline},
		{"upper borderline bound", ptr(1.5), TierBorderline},
		{"just over borderline", ptr(1.51), TierDiscriminatory},
		{"parity", ptr(1.0), TierFair},
		{"zero ratio", ptr(0), TierDiscriminatory},
		{"quarter", ptr(0.25), TierDiscriminatory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDI(tt.di))
		})
	}
}

func TestTierLabel(t *testing.T) {
	assert.Equal(t, "—", TierUnknown.Label())
	assert.Equal(t, "Fair", TierFair.Label())
	assert.Equal(t, "Borderline", TierBorderline.Label())
	assert.Equal(t, "Biased", TierDiscriminatory.Label())
}

func TestDimension(t *testing.T) {
	r := NewRecord(7, "Asian", "Female", "65+", 12, false)
	assert.Equal(t, "Asian", DimensionRace.Value(r))
	assert.Equal(t, "Female", DimensionGender.Value(r))
	assert.Equal(t, "65+", DimensionAgeGroup.Value(r))

	d, ok := ParseDimension("ageGroup")
	assert.True(t, ok)
	assert.Equal(t, DimensionAgeGroup, d)
	_, ok = ParseDimension("income")
	assert.False(t, ok)

	assert.Equal(t, "White", DimensionRace.Reference())
	assert.Equal(t, "Male", DimensionGender.Reference())
	assert.Equal(t, "26-35", DimensionAgeGroup.Reference())
}

func TestDimensionCategories_ReturnsCopy(t *testing.T) {
	cats := DimensionGender.Categories()
	cats[0] = "changed"
	assert.Equal(t, "Male", Genders[0])
	assert.Equal(t, []string{"Male", "Female", "Non-binary"}, DimensionGender.Categories())
}
