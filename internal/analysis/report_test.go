package analysis

import (
	"math"
	"testing"

	"biasaudit/domain/audit"
	"biasaudit/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closedSets(dim audit.Dimension) []string { return dim.Categories() }

func TestBuildReport_GeneratedPopulation(t *testing.T) {
	records := testkit.NewPopulationGenerator(42).Generate(2000)
	report := BuildReport(records, DefaultSpecs(closedSets))

	require.Len(t, report.Dimensions, 3)
	for i, dim := range audit.Dimensions {
		d := report.Dimensions[i]
		assert.Equal(t, dim, d.Dimension)
		assert.Equal(t, dim.Reference(), d.Reference)
		assert.Len(t, d.Groups, len(dim.Categories()))

		for _, g := range d.Groups {
			assert.Equal(t, g.Tier.Label(), g.TierLabel)
			assert.Equal(t, audit.ClassifyDI(g.DI), g.Tier)
			if g.IsReference {
				assert.Nil(t, g.Test)
				require.NotNil(t, g.DI)
				assert.Equal(t, 1.0, *g.DI)
			} else {
				require.NotNil(t, g.Test, g.Group)
				assert.GreaterOrEqual(t, g.Test.PValue, 0.0)
				assert.LessOrEqual(t, g.Test.PValue, 1.0)
			}
		}
	}

	assert.Equal(t, 2000, report.KPIs.Records)
	require.NotNil(t, report.KPIs.AvgScore)
	require.NotNil(t, report.KPIs.HighRiskPct)
	require.NotNil(t, report.KPIs.MaxDI)
	require.NotNil(t, report.KPIs.TopGroup)
	assert.GreaterOrEqual(t, *report.KPIs.MaxDI, 1.0)

	assert.Len(t, report.Heatmap.Cells, len(audit.Races))
	for _, row := range report.Heatmap.Cells {
		assert.Len(t, row, len(audit.Genders))
	}
}

func TestBuildReport_Idempotent(t *testing.T) {
	records := testkit.NewPopulationGenerator(5).Generate(600)
	specs := DefaultSpecs(closedSets)
	assert.Equal(t, BuildReport(records, specs), BuildReport(records, specs))
}

func TestBuildReport_Empty(t *testing.T) {
	report := BuildReport(nil, DefaultSpecs(closedSets))

	for _, d := range report.Dimensions {
		assert.Empty(t, d.Groups, d.Dimension)
	}
	assert.Zero(t, report.KPIs.Records)
	assert.Nil(t, report.KPIs.AvgScore)
	assert.Nil(t, report.KPIs.HighRiskPct)
	assert.Nil(t, report.KPIs.MaxDI)
	assert.Nil(t, report.KPIs.TopGroup)

	for _, row := range report.Heatmap.Cells {
		for _, cell := range row {
			assert.True(t, cell.Empty)
			assert.Equal(t, 50.0, cell.AvgScore)
		}
	}
}

func TestBuildReport_TopGroupAndMaxDI(t *testing.T) {
	records := []audit.Record{
		// White: 1/2 high risk, Black: 2/2 high risk -> DI 2.0
		audit.NewRecord(0, "White", "Male", "26-35", 80, false),
		audit.NewRecord(1, "White", "Female", "26-35", 10, false),
		audit.NewRecord(2, "Black", "Male", "26-35", 90, true),
		audit.NewRecord(3, "Black", "Female", "26-35", 70, true),
	}
	report := BuildReport(records, DefaultSpecs(closedSets))

	require.NotNil(t, report.KPIs.TopGroup)
	assert.Equal(t, audit.DimensionRace, report.KPIs.TopGroup.Dimension)
	assert.Equal(t, "Black", report.KPIs.TopGroup.Group)
	require.NotNil(t, report.KPIs.MaxDI)
	assert.Equal(t, 2.0, *report.KPIs.MaxDI)

	assert.Equal(t, 62.5, *report.KPIs.AvgScore)
	assert.Equal(t, 75.0, *report.KPIs.HighRiskPct)

	cell := report.Heatmap.Cells[1][0] // Black x Male
	assert.Equal(t, "Black", cell.Race)
	assert.Equal(t, "Male", cell.Gender)
	assert.Equal(t, 90.0, cell.AvgScore)
	assert.Equal(t, 1, cell.Count)
	assert.False(t, cell.Empty)
	assert.True(t, report.Heatmap.Cells[2][2].Empty)
}

func TestBuildReport_UndefinedRatiosCountAsParity(t *testing.T) {
	// No White records at all: race DI is undefined everywhere.
	records := []audit.Record{
		audit.NewRecord(0, "Black", "Male", "26-35", 10, false),
		audit.NewRecord(1, "Asian", "Male", "26-35", 20, false),
	}
	report := BuildReport(records, DefaultSpecs(closedSets))

	race, ok := report.Dimension(audit.DimensionRace)
	require.True(t, ok)
	for _, g := range race.Groups {
		assert.Nil(t, g.DI)
		assert.Equal(t, audit.TierUnknown, g.Tier)
		assert.Equal(t, "—", g.TierLabel)
		assert.Nil(t, g.Test)
	}
	require.NotNil(t, report.KPIs.MaxDI)
	assert.Equal(t, 1.0, *report.KPIs.MaxDI)
	assert.Equal(t, "Black", report.KPIs.TopGroup.Group)
	assert.Nil(t, report.KPIs.TopGroup.DI)
}

func TestDimensionReport_Stats(t *testing.T) {
	records := testkit.NewPopulationGenerator(8).Generate(300)
	report := BuildReport(records, DefaultSpecs(closedSets))
	gender, ok := report.Dimension(audit.DimensionGender)
	require.True(t, ok)

	direct := AnnotateWithDI(ComputeGroupStats(records, audit.DimensionGender, audit.Genders), "Male")
	assert.Equal(t, direct, gender.Stats())

	_, ok = report.Dimension("income")
	assert.False(t, ok)
}

func TestTwoProportionZTest(t *testing.T) {
	test, ok := TwoProportionZTest(80, 100, 20, 100)
	require.True(t, ok)
	assert.InDelta(t, 8.485, test.ZScore, 0.001)
	assert.Less(t, test.PValue, 1e-10)

	test, ok = TwoProportionZTest(50, 100, 50, 100)
	require.True(t, ok)
	assert.Equal(t, 0.0, test.ZScore)
	assert.InDelta(t, 1.0, test.PValue, 1e-12)

	test, ok = TwoProportionZTest(12, 40, 20, 50)
	require.True(t, ok)
	// p1=.3, p2=.4, pooled=32/90
	se := math.Sqrt(32.0 / 90 * (58.0 / 90) * (1.0/40 + 1.0/50))
	assert.InDelta(t, (0.3-0.4)/se, test.ZScore, 0.001)
	assert.InDelta(t, 0.32, test.PValue, 0.01)

	_, ok = TwoProportionZTest(0, 0, 3, 10)
	assert.False(t, ok)
	_, ok = TwoProportionZTest(0, 10, 0, 10)
	assert.False(t, ok)
	_, ok = TwoProportionZTest(10, 10, 10, 10)
	assert.False(t, ok)
}
