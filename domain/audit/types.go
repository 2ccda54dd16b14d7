// Package audit holds the value types shared by every stage of a fairness
// audit: scored records, the demographic dimensions they are grouped by, and
// the per-group statistics derived from them.
package audit

// HighRiskThreshold is the score at or above which a record is flagged.
const HighRiskThreshold = 65

// Record is one scored individual. Records are built once through NewRecord
// and never mutated afterwards.
type Record struct {
	ID        int     `json:"id"`
	Race      string  `json:"race"`
	Gender    string  `json:"gender"`
	AgeGroup  string  `json:"ageGroup"`
	RiskScore float64 `json:"riskScore"`
	HighRisk  bool    `json:"highRisk"`
	ActualBad bool    `json:"actualBad"`
}

// NewRecord builds a record and derives HighRisk from the score.
func NewRecord(id int, race, gender, ageGroup string, riskScore float64, actualBad bool) Record {
	return Record{
		ID:        id,
		Race:      race,
		Gender:    gender,
		AgeGroup:  ageGroup,
		RiskScore: riskScore,
		HighRisk:  IsHighRisk(riskScore),
		ActualBad: actualBad,
	}
}

// IsHighRisk applies the flagging threshold.
func IsHighRisk(riskScore float64) bool {
	return riskScore >= HighRiskThreshold
}

// GroupStat summarises the records sharing one value of a dimension.
// DI is nil until a disparate impact ratio has been computed, and stays nil
// when the ratio is undefined.
type GroupStat struct {
	Group        string   `json:"group"`
	AvgScore     float64  `json:"avgScore"`
	HighRiskRate float64  `json:"highRiskRate"`
	FPR          float64  `json:"fpr"`
	FNR          float64  `json:"fnr"`
	Count        int      `json:"count"`
	DI           *float64 `json:"di"`
}

// Tier classifies the stat's DI.
func (s GroupStat) Tier() Tier {
	return ClassifyDI(s.DI)
}

// Closed category sets used by the synthetic generator and as the default
// ordering for every dimension.
var (
	Races     = []string{"White", "Black", "Hispanic", "Asian", "Other"}
	Genders   = []string{"Male", "Female", "Non-binary"}
	AgeGroups = []string{"18-25", "26-35", "36-50", "51-65", "65+"}
)
