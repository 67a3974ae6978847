package optimization

import "testing"

func TestSummaryObjective(t *testing.T) {
	tests := []struct {
		name     string
		summary  Summary
		expected float64
	}{
		{name: "pareto uses A's utility", summary: Summary{Kind: "pareto", UtilityA: 0.7, Welfare: 1.1}, expected: 0.7},
		{name: "planner uses welfare", summary: Summary{Kind: "planner", UtilityA: 0.5, Welfare: 1.05}, expected: 1.05},
		{name: "market maker uses A's utility", summary: Summary{Kind: "marketMaker", UtilityA: 0.63, Welfare: 0.9}, expected: 0.63},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.summary.Objective(); got != tt.expected {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSummaryFailed(t *testing.T) {
	if (Summary{}).Failed() {
		t.Fatalf("empty summary should not be failed")
	}
	if !(Summary{Error: "optimization failed"}).Failed() {
		t.Fatalf("summary with an error should be failed")
	}
}
