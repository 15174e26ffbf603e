package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

// round rounds half away from zero to the given decimal places in base 10,
// so 0.575 stays 0.575 instead of drifting to 0.57499999.
func round(value float64, places int) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return decimal.NewFromFloat(value).Round(int32(places)).InexactFloat64()
}

// roundInt rounds a scaled interest value to the nearest integer.
func roundInt(value float64) int {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return int(decimal.NewFromFloat(value).Round(0).IntPart())
}

// avg calculates the average of all values
func avg(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// pctChange calculates the percentage change from old to new
func pctChange(old, newVal float64) float64 {
	if old == 0 {
		return 0
	}
	return ((newVal - old) / old) * 100
}

// clamp restricts a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
