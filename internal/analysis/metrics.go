// Package analysis turns records into per-group fairness statistics. Every
// function here is pure: it reads its arguments and returns fresh values.
package analysis

import (
	"math"

	"biasaudit/domain/audit"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// tally is the confusion-matrix accumulator for one group.
type tally struct {
	scores []float64
	high   int
	tp     int
	fp     int
	fn     int
	tn     int
}

func (t *tally) add(r audit.Record) {
	t.scores = append(t.scores, r.RiskScore)
	switch {
	case r.HighRisk && r.ActualBad:
		t.high++
		t.tp++
	case r.HighRisk:
		t.high++
		t.fp++
	case r.ActualBad:
		t.fn++
	default:
		t.tn++
	}
}

func (t *tally) count() int {
	return len(t.scores)
}

func (t *tally) stat(group string) audit.GroupStat {
	avg, _ := stats.Mean(t.scores)
	return audit.GroupStat{
		Group:        group,
		AvgScore:     round(avg, 1),
		HighRiskRate: round(percent(t.high, t.count()), 1),
		FPR:          round(percent(t.fp, t.fp+t.tn), 1),
		FNR:          round(percent(t.fn, t.tp+t.fn), 1),
		Count:        t.count(),
	}
}

// tallyGroups partitions records by dim in a single pass.
func tallyGroups(records []audit.Record, dim audit.Dimension) map[string]*tally {
	groups := make(map[string]*tally)
	for _, r := range records {
		key := dim.Value(r)
		t, ok := groups[key]
		if !ok {
			t = &tally{}
			groups[key] = t
		}
		t.add(r)
	}
	return groups
}

// ComputeGroupStats aggregates records by dim. The result follows the order
// of categories and omits categories without records; a category listed
// twice is reported once.
func ComputeGroupStats(records []audit.Record, dim audit.Dimension, categories []string) []audit.GroupStat {
	groups := tallyGroups(records, dim)

	out := make([]audit.GroupStat, 0, len(categories))
	emitted := make(map[string]bool, len(categories))
	for _, category := range categories {
		t, ok := groups[category]
		if !ok || t.count() == 0 || emitted[category] {
			continue
		}
		emitted[category] = true
		out = append(out, t.stat(category))
	}
	return out
}

// percent is part/whole*100, or 0 when whole is 0.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// round rounds half away from zero on the shortest decimal form of v.
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
