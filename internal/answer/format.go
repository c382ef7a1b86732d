// Package answer renders computed correct answers for display and derives
// the acceptance interval a response is graded against.
package answer

import (
	"fmt"
	"math"
	"strconv"
)

// Format selects how the answer length is interpreted.
type Format int

const (
	// FormatDecimals renders with a fixed number of decimal places.
	FormatDecimals Format = 1
	// FormatSigFigs renders with a fixed number of significant figures.
	FormatSigFigs Format = 2
)

// ErrorMarker is rendered when an answer could not be computed.
const ErrorMarker = "Error"

// FormatAnswer renders value according to the answer length and format,
// appending the unit when one is set. Non-numeric values render the error
// marker.
func FormatAnswer(value float64, length int, format Format, unit string) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ErrorMarker
	}

	var s string
	switch {
	case format == FormatDecimals:
		s = strconv.FormatFloat(value, 'f', length, 64)
	case value == 0:
		// Significant figures only apply to non-zero results.
		s = "0"
	default:
		s = formatSigFigs(value, length)
	}

	if unit != "" {
		s += " " + unit
	}
	return s
}

// formatSigFigs rounds value to length significant figures and renders it
// in plain decimal notation, or scientific notation when the decimal
// exponent falls outside [-2, 4].
func formatSigFigs(value float64, length int) string {
	sign := ""
	if value < 0 {
		value = -value
		sign = "-"
	}

	// Normalize to a mantissa in [0.1, 1) tracking the power of ten.
	p10 := 0
	for value < 0.1 {
		p10--
		value *= 10
	}
	for value >= 1 {
		p10++
		value /= 10
	}

	value = roundTo(value, length)
	if value >= 1 {
		// Rounding overflowed the mantissa, e.g. 0.999 -> 1.00.
		p10++
		value /= 10
	}

	if p10 < -2 || p10 > 4 {
		exponent := p10 - 1
		mantissa := value * 10
		decimals := length - 1
		if decimals < 0 {
			decimals = 0
		}
		return sign + strconv.FormatFloat(mantissa, 'f', decimals, 64) +
			"e" + strconv.Itoa(exponent)
	}

	decimals := length - p10
	if decimals < 0 {
		decimals = 0
	}
	return fmt.Sprintf("%s%.*f", sign, decimals, value*math.Pow10(p10))
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(v*scale) / scale
}
