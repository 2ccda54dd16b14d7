package analysis

import "biasaudit/domain/audit"

// AnnotateWithDI returns a copy of stats where every DI is the group's
// high-risk rate over the reference group's, rounded to two decimals. All
// ratios stay nil when the reference is absent or its rate is zero.
func AnnotateWithDI(stats []audit.GroupStat, reference string) []audit.GroupStat {
	refRate := 0.0
	for _, s := range stats {
		if s.Group == reference {
			refRate = s.HighRiskRate
			break
		}
	}

	out := make([]audit.GroupStat, len(stats))
	for i, s := range stats {
		s.DI = nil
		if refRate > 0 {
			di := round(s.HighRiskRate/refRate, 2)
			s.DI = &di
		}
		out[i] = s
	}
	return out
}
