package audit

// Tier is the four-fifths-rule classification of a disparate impact ratio.
type Tier string

const (
	TierUnknown        Tier = "unknown"
	TierFair           Tier = "fair"
	TierBorderline     Tier = "borderline"
	TierDiscriminatory Tier = "discriminatory"
)

// Four-fifths rule bounds.
const (
	FairLower       = 0.8
	FairUpper       = 1.25
	BorderlineLower = 0.65
	BorderlineUpper = 1.5
)

// ClassifyDI maps a ratio onto its tier. A nil ratio is unknown; a ratio of
// exactly zero is a defined value and classifies as discriminatory.
func ClassifyDI(di *float64) Tier {
	if di == nil {
		return TierUnknown
	}
	v := *di
	switch {
	case v >= FairLower && v <= FairUpper:
		return TierFair
	case (v >= BorderlineLower && v < FairLower) || (v > FairUpper && v <= BorderlineUpper):
		return TierBorderline
	default:
		return TierDiscriminatory
	}
}

// Label is the badge text shown next to a ratio.
func (t Tier) Label() string {
	switch t {
	case TierFair:
		return "Fair"
	case TierBorderline:
		return "Borderline"
	case TierDiscriminatory:
		return "Biased"
	}
	return "—"
}
