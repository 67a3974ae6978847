// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/edgeworth/pkg/mathutil"
	"github.com/iwvelando/edgeworth/pkg/optimization"
)

// FindSearch finds a search summary by name in the results slice.
// Returns a pointer to the summary if found, nil otherwise.
func FindSearch(results []optimization.Summary, name string) *optimization.Summary {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// AlmostEqual reports whether a and b differ by no more than tolerance.
func AlmostEqual(a, b, tolerance float64) bool {
	return mathutil.WithinTolerance(a, b, tolerance)
}
