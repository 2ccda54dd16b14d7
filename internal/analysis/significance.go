package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ProportionTest is a two-proportion z-test of a group's high-risk rate
// against the reference group's.
type ProportionTest struct {
	ZScore float64 `json:"zScore"`
	PValue float64 `json:"pValue"`
}

// TwoProportionZTest compares x1/n1 with x2/n2 using the pooled standard
// error and a two-sided p-value. ok is false when either sample is empty or
// the pooled proportion is 0 or 1, where the statistic is undefined.
func TwoProportionZTest(x1, n1, x2, n2 int) (ProportionTest, bool) {
	if n1 == 0 || n2 == 0 {
		return ProportionTest{}, false
	}
	pooled := float64(x1+x2) / float64(n1+n2)
	if pooled <= 0 || pooled >= 1 {
		return ProportionTest{}, false
	}

	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(n1) + 1/float64(n2)))
	z := (float64(x1)/float64(n1) - float64(x2)/float64(n2)) / se
	p := 2 * distuv.UnitNormal.Survival(math.Abs(z))

	return ProportionTest{
		ZScore: round(z, 3),
		PValue: math.Min(1, p),
	}, true
}
