package analysis

import (
	"biasaudit/domain/audit"

	"github.com/montanaflynn/stats"
)

// heatmapEmptyScore is reported for race x gender cells without records.
const heatmapEmptyScore = 50

// DimensionSpec says how one dimension is grouped and normalised.
type DimensionSpec struct {
	Dimension  audit.Dimension
	Reference  string
	Categories []string
}

// DefaultSpecs builds the race, gender and age specs with their standard
// reference groups, taking each dimension's ordering from categories.
func DefaultSpecs(categories func(audit.Dimension) []string) []DimensionSpec {
	specs := make([]DimensionSpec, 0, len(audit.Dimensions))
	for _, dim := range audit.Dimensions {
		specs = append(specs, DimensionSpec{
			Dimension:  dim,
			Reference:  dim.Reference(),
			Categories: categories(dim),
		})
	}
	return specs
}

// GroupResult is a GroupStat with its tier and significance attached.
type GroupResult struct {
	audit.GroupStat
	Tier        audit.Tier      `json:"tier"`
	TierLabel   string          `json:"tierLabel"`
	IsReference bool            `json:"isReference"`
	Test        *ProportionTest `json:"test"`
}

// DimensionReport holds the annotated groups of one dimension.
type DimensionReport struct {
	Dimension audit.Dimension `json:"dimension"`
	Label     string          `json:"label"`
	Reference string          `json:"reference"`
	Groups    []GroupResult   `json:"groups"`
}

// Stats returns the plain group statistics.
func (d DimensionReport) Stats() []audit.GroupStat {
	out := make([]audit.GroupStat, len(d.Groups))
	for i, g := range d.Groups {
		out[i] = g.GroupStat
	}
	return out
}

// TopGroup is the group with the highest disparate impact.
type TopGroup struct {
	Dimension audit.Dimension `json:"dimension"`
	Group     string          `json:"group"`
	DI        *float64        `json:"di"`
}

// KPIs are the headline numbers of a report. Pointer fields are nil when
// the dataset is empty.
type KPIs struct {
	Records     int       `json:"records"`
	AvgScore    *float64  `json:"avgScore"`
	HighRiskPct *float64  `json:"highRiskPct"`
	MaxDI       *float64  `json:"maxDI"`
	TopGroup    *TopGroup `json:"topGroup"`
}

// HeatmapCell is the average score of one race x gender intersection.
type HeatmapCell struct {
	Race     string  `json:"race"`
	Gender   string  `json:"gender"`
	AvgScore float64 `json:"avgScore"`
	Count    int     `json:"count"`
	Empty    bool    `json:"empty"`
}

// Heatmap is indexed [race][gender].
type Heatmap struct {
	Races   []string        `json:"races"`
	Genders []string        `json:"genders"`
	Cells   [][]HeatmapCell `json:"cells"`
}

// Report is everything the dashboard, CLI and prompt need from one dataset.
type Report struct {
	Dimensions []DimensionReport `json:"dimensions"`
	KPIs       KPIs              `json:"kpis"`
	Heatmap    Heatmap           `json:"heatmap"`
}

// Dimension returns the report for dim.
func (r Report) Dimension(dim audit.Dimension) (DimensionReport, bool) {
	for _, d := range r.Dimensions {
		if d.Dimension == dim {
			return d, true
		}
	}
	return DimensionReport{}, false
}

// BuildReport computes every dimension in specs plus the KPIs and heatmap.
func BuildReport(records []audit.Record, specs []DimensionSpec) Report {
	report := Report{Dimensions: make([]DimensionReport, 0, len(specs))}
	for _, spec := range specs {
		report.Dimensions = append(report.Dimensions, buildDimension(records, spec))
	}
	report.KPIs = buildKPIs(records, report.Dimensions)

	var races, genders []string
	for _, spec := range specs {
		switch spec.Dimension {
		case audit.DimensionRace:
			races = spec.Categories
		case audit.DimensionGender:
			genders = spec.Categories
		}
	}
	report.Heatmap = buildHeatmap(records, races, genders)
	return report
}

func buildDimension(records []audit.Record, spec DimensionSpec) DimensionReport {
	annotated := AnnotateWithDI(ComputeGroupStats(records, spec.Dimension, spec.Categories), spec.Reference)
	tallies := tallyGroups(records, spec.Dimension)
	ref := tallies[spec.Reference]

	groups := make([]GroupResult, len(annotated))
	for i, s := range annotated {
		tier := s.Tier()
		g := GroupResult{
			GroupStat:   s,
			Tier:        tier,
			TierLabel:   tier.Label(),
			IsReference: s.Group == spec.Reference,
		}
		if !g.IsReference && ref != nil {
			t := tallies[s.Group]
			if test, ok := TwoProportionZTest(t.high, t.count(), ref.high, ref.count()); ok {
				g.Test = &test
			}
		}
		groups[i] = g
	}

	return DimensionReport{
		Dimension: spec.Dimension,
		Label:     spec.Dimension.Label(),
		Reference: spec.Reference,
		Groups:    groups,
	}
}

func buildKPIs(records []audit.Record, dims []DimensionReport) KPIs {
	kpis := KPIs{Records: len(records)}
	if len(records) > 0 {
		scores := make([]float64, len(records))
		high := 0
		for i, r := range records {
			scores[i] = r.RiskScore
			if r.HighRisk {
				high++
			}
		}
		mean, _ := stats.Mean(scores)
		avg := round(mean, 1)
		pct := round(percent(high, len(records)), 1)
		kpis.AvgScore = &avg
		kpis.HighRiskPct = &pct
	}

	// Undefined ratios count as parity; the first maximum wins.
	best := 0.0
	for _, d := range dims {
		for _, g := range d.Groups {
			v := 1.0
			if g.DI != nil {
				v = *g.DI
			}
			if kpis.TopGroup == nil || v > best {
				best = v
				kpis.TopGroup = &TopGroup{Dimension: d.Dimension, Group: g.Group, DI: g.DI}
			}
		}
	}
	if kpis.TopGroup != nil {
		maxDI := round(best, 2)
		kpis.MaxDI = &maxDI
	}
	return kpis
}

func buildHeatmap(records []audit.Record, races, genders []string) Heatmap {
	type acc struct {
		scores []float64
	}
	cells := make(map[[2]string]*acc)
	for _, r := range records {
		key := [2]string{r.Race, r.Gender}
		a, ok := cells[key]
		if !ok {
			a = &acc{}
			cells[key] = a
		}
		a.scores = append(a.scores, r.RiskScore)
	}

	heatmap := Heatmap{Races: races, Genders: genders, Cells: make([][]HeatmapCell, len(races))}
	for i, race := range races {
		heatmap.Cells[i] = make([]HeatmapCell, len(genders))
		for j, gender := range genders {
			cell := HeatmapCell{Race: race, Gender: gender, AvgScore: heatmapEmptyScore, Empty: true}
			if a, ok := cells[[2]string{race, gender}]; ok {
				mean, _ := stats.Mean(a.scores)
				cell.AvgScore = round(mean, 1)
				cell.Count = len(a.scores)
				cell.Empty = false
			}
			heatmap.Cells[i][j] = cell
		}
	}
	return heatmap
}
