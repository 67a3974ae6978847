package testutil

import (
	"math"
	"testing"

	"github.com/iwvelando/edgeworth/pkg/optimization"
)

func TestFindSearch(t *testing.T) {
	results := []optimization.Summary{
		{Name: "pareto grid", UtilityA: 0.74},
		{Name: "planner grid", Welfare: 1.05},
		{Name: "pareto grid", UtilityA: 0.5},
	}

	tests := []struct {
		name        string
		searchName  string
		expectFound bool
		expectedA   float64
	}{
		{name: "Find first of duplicates", searchName: "pareto grid", expectFound: true, expectedA: 0.74},
		{name: "Find planner", searchName: "planner grid", expectFound: true},
		{name: "Missing search", searchName: "market maker", expectFound: false},
		{name: "Case sensitive", searchName: "Pareto Grid", expectFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := FindSearch(results, tt.searchName)
			if !tt.expectFound {
				if found != nil {
					t.Fatalf("expected no match for %q, got %+v", tt.searchName, found)
				}
				return
			}
			if found == nil {
				t.Fatalf("expected to find %q", tt.searchName)
			}
			if found.UtilityA != tt.expectedA {
				t.Errorf("expected utility %v, got %v", tt.expectedA, found.UtilityA)
			}
		})
	}

	if FindSearch(nil, "anything") != nil {
		t.Errorf("expected nil for an empty slice")
	}
}

func TestFindSearchReturnsPointerIntoSlice(t *testing.T) {
	results := []optimization.Summary{{Name: "a"}}
	FindSearch(results, "a").Notes = []string{"edited"}
	if len(results[0].Notes) != 1 {
		t.Fatalf("expected the pointer to alias the slice element")
	}
}

func TestAlmostEqual(t *testing.T) {
	if !AlmostEqual(1, 1+1e-10, 1e-9) {
		t.Errorf("expected values within tolerance to compare equal")
	}
	if AlmostEqual(1, 1.1, 1e-3) {
		t.Errorf("expected values outside tolerance to differ")
	}
	if AlmostEqual(math.NaN(), math.NaN(), 1) {
		t.Errorf("NaN should never compare equal")
	}
}
