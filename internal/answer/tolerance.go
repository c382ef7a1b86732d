package answer

import "math"

// ToleranceType selects how the tolerance value widens the accepted
// interval around the correct answer.
type ToleranceType int

const (
	// Relative scales the tolerance by the answer's magnitude.
	Relative ToleranceType = 1
	// Nominal treats the tolerance as an absolute margin.
	Nominal ToleranceType = 2
	// Geometric bounds the answer by the factor 1 + tolerance.
	Geometric ToleranceType = 3
)

// ToleranceInterval returns the closed interval of accepted responses for
// the given correct answer. The result always satisfies min <= max, also
// for negative answers under geometric tolerance.
func ToleranceInterval(ans, tolerance float64, tt ToleranceType) (min, max float64) {
	tolerance = math.Abs(tolerance)

	switch tt {
	case Nominal:
		min, max = ans-tolerance, ans+tolerance
	case Geometric:
		quotient := 1 + tolerance
		min, max = ans/quotient, ans*quotient
	default:
		// Relative is the fallback for unknown types as well.
		margin := math.Abs(ans) * tolerance
		min, max = ans-margin, ans+margin
	}

	if min > max {
		min, max = max, min
	}
	return min, max
}
