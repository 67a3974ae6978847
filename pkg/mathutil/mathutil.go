// Package mathutil provides common mathematical utility functions.
package mathutil

import "math"

// IsFinite reports whether val is neither NaN nor an infinity.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// InClosedRange reports whether lo <= val <= hi.
func InClosedRange(val, lo, hi float64) bool {
	return IsFinite(val) && val >= lo && val <= hi
}

// InOpenRange reports whether lo < val < hi.
func InOpenRange(val, lo, hi float64) bool {
	return IsFinite(val) && val > lo && val < hi
}

// Clamp limits val to [min, max].
func Clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Logistic maps the real line onto the open interval (lo, hi).
func Logistic(y, lo, hi float64) float64 {
	return lo + (hi-lo)/(1+math.Exp(-y))
}

// Logit is the inverse of Logistic. Values on or outside the interval
// boundary are pulled inside by a small margin first.
func Logit(x, lo, hi float64) float64 {
	span := hi - lo
	margin := span * 1e-12
	x = Clamp(x, lo+margin, hi-margin)
	u := (x - lo) / span
	return math.Log(u / (1 - u))
}
