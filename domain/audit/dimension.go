package audit

// Dimension names a demographic grouping key.
type Dimension string

const (
	DimensionRace     Dimension = "race"
	DimensionGender   Dimension = "gender"
	DimensionAgeGroup Dimension = "ageGroup"
)

// Dimensions lists every grouping key in report order.
var Dimensions = []Dimension{DimensionRace, DimensionGender, DimensionAgeGroup}

// ParseDimension maps a column or query value onto a Dimension.
func ParseDimension(s string) (Dimension, bool) {
	switch Dimension(s) {
	case DimensionRace, DimensionGender, DimensionAgeGroup:
		return Dimension(s), true
	}
	return "", false
}

// Value returns the record's category for this dimension.
func (d Dimension) Value(r Record) string {
	switch d {
	case DimensionRace:
		return r.Race
	case DimensionGender:
		return r.Gender
	case DimensionAgeGroup:
		return r.AgeGroup
	}
	return ""
}

// Label is the human-readable dimension name.
func (d Dimension) Label() string {
	switch d {
	case DimensionRace:
		return "Race & Ethnicity"
	case DimensionGender:
		return "Gender"
	case DimensionAgeGroup:
		return "Age Group"
	}
	return string(d)
}

// PromptLabel is the upper-case heading used in analysis prompts.
func (d Dimension) PromptLabel() string {
	switch d {
	case DimensionRace:
		return "RACE"
	case DimensionGender:
		return "GENDER"
	case DimensionAgeGroup:
		return "AGE"
	}
	return string(d)
}

// Categories returns a copy of the dimension's closed category set.
func (d Dimension) Categories() []string {
	var src []string
	switch d {
	case DimensionRace:
		src = Races
	case DimensionGender:
		src = Genders
	case DimensionAgeGroup:
		src = AgeGroups
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Reference is the group every other group of the dimension is compared to.
func (d Dimension) Reference() string {
	switch d {
	case DimensionRace:
		return "White"
	case DimensionGender:
		return "Male"
	case DimensionAgeGroup:
		return "26-35"
	}
	return ""
}
