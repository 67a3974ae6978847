package optimizer

import (
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"
)

func TestMinimizeUnconstrainedQuadratic(t *testing.T) {
	m := New(zap.NewNop())
	res, err := m.Minimize(Problem{
		Objective: func(x []float64) float64 {
			return (x[0]-0.3)*(x[0]-0.3) + (x[1]-0.7)*(x[1]-0.7)
		},
		Lower:     []float64{0, 0},
		Upper:     []float64{1, 1},
		Tolerance: 1e-8,
	})
	if err != nil {
		t.Fatalf("Minimize: %v", err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence, status %s", res.Status)
	}
	if math.Abs(res.X[0]-0.3) > 1e-5 || math.Abs(res.X[1]-0.7) > 1e-5 {
		t.Fatalf("unexpected solution %v", res.X)
	}
	if res.OuterIterations != 1 {
		t.Fatalf("expected a single pass without constraints, got %d", res.OuterIterations)
	}
}

// The first penalty pass of this problem ends in the (0, 0) corner, where
// the logistic map is flat; later passes must still reach the constraint.
func TestMinimizeWithActiveInequality(t *testing.T) {
	m := New(nil)
	res, err := m.Minimize(Problem{
		Objective:   func(x []float64) float64 { return x[0] + x[1] },
		Constraints: []Constraint{func(x []float64) float64 { return x[0]*x[1] - 0.25 }},
		Lower:       []float64{0, 0},
		Upper:       []float64{2, 2},
		Initial:     []float64{1.5, 1.5},
		Tolerance:   1e-8,
	})
	if err != nil {
		t.Fatalf("Minimize: %v", err)
	}
	if math.Abs(res.F-1) > 1e-4 {
		t.Fatalf("expected objective near 1, got %v at %v", res.F, res.X)
	}
	if res.MaxViolation > 1e-4 {
		t.Fatalf("constraint violated by %v", res.MaxViolation)
	}
}

func TestMinimizeConstrainedOptimumOnBoxEdge(t *testing.T) {
	m := New(nil)
	res, err := m.Minimize(Problem{
		Objective:   func(x []float64) float64 { return -(x[0] + 2*x[1]) },
		Constraints: []Constraint{func(x []float64) float64 { return 0.5 - x[0] - x[1] }},
		Lower:       []float64{0, 0},
		Upper:       []float64{1, 1},
		Initial:     []float64{0.5, 0.5},
		Tolerance:   1e-8,
	})
	if err != nil {
		t.Fatalf("Minimize: %v", err)
	}
	if math.Abs(res.X[0]) > 1e-4 || math.Abs(res.X[1]-0.5) > 1e-4 {
		t.Fatalf("expected (0, 0.5), got %v", res.X)
	}
	if res.MaxViolation > 1e-4 {
		t.Fatalf("constraint violated by %v", res.MaxViolation)
	}
}

func TestMinimizeStaysInsideBox(t *testing.T) {
	m := New(nil)
	escaped := 0
	res, err := m.Minimize(Problem{
		Objective: func(x []float64) float64 {
			if x[0] < 0 || x[0] > 1 {
				escaped++
			}
			return (x[0] - 2) * (x[0] - 2)
		},
		Lower:     []float64{0},
		Upper:     []float64{1},
		Tolerance: 1e-8,
	})
	if err != nil {
		t.Fatalf("Minimize: %v", err)
	}
	if escaped > 0 {
		t.Fatalf("%d iterates left the box", escaped)
	}
	if res.X[0] < 0.999 || res.X[0] > 1 {
		t.Fatalf("expected solution at the upper bound, got %v", res.X[0])
	}
}

func TestMinimizeReportsInfeasibleProblem(t *testing.T) {
	m := New(nil)
	_, err := m.Minimize(Problem{
		Objective:   func(x []float64) float64 { return x[0] },
		Constraints: []Constraint{func(x []float64) float64 { return -1 }},
		Lower:       []float64{0},
		Upper:       []float64{1},
		Tolerance:   1e-6,
	})
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("expected ErrFailed, got %v", err)
	}
}

func TestMinimizeReportsIterationLimit(t *testing.T) {
	m := New(nil)
	res, err := m.Minimize(Problem{
		Objective: func(x []float64) float64 {
			return (x[0]-0.3)*(x[0]-0.3) + (x[1]-0.7)*(x[1]-0.7)
		},
		Lower:         []float64{0, 0},
		Upper:         []float64{1, 1},
		Tolerance:     1e-8,
		MaxIterations: 2,
	})
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("expected ErrFailed, got %v", err)
	}
	if res.Converged {
		t.Fatalf("failed result must not be flagged converged")
	}
}

func TestMinimizeValidatesProblem(t *testing.T) {
	objective := func(x []float64) float64 { return 0 }
	tests := []struct {
		name    string
		problem Problem
	}{
		{name: "nil objective", problem: Problem{Lower: []float64{0}, Upper: []float64{1}, Tolerance: 1e-8}},
		{name: "missing bounds", problem: Problem{Objective: objective, Tolerance: 1e-8}},
		{name: "empty box", problem: Problem{Objective: objective, Lower: []float64{1}, Upper: []float64{1}, Tolerance: 1e-8}},
		{name: "bad initial", problem: Problem{Objective: objective, Lower: []float64{0}, Upper: []float64{1}, Initial: []float64{0.5, 0.5}, Tolerance: 1e-8}},
		{name: "zero tolerance", problem: Problem{Objective: objective, Lower: []float64{0}, Upper: []float64{1}}},
	}

	m := New(nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := m.Minimize(tc.problem); !errors.Is(err, ErrInvalidProblem) {
				t.Fatalf("expected ErrInvalidProblem, got %v", err)
			}
		})
	}
}

func TestMinimizeScalar(t *testing.T) {
	m := New(nil)
	res, err := m.MinimizeScalar(func(p float64) float64 { return (p - 1.9) * (p - 1.9) }, 0.5, 11.5, 1e-8, 0)
	if err != nil {
		t.Fatalf("MinimizeScalar: %v", err)
	}
	if math.Abs(res.X[0]-1.9) > 1e-5 {
		t.Fatalf("expected 1.9, got %v", res.X[0])
	}
}

func TestPenaltyIsContinuous(t *testing.T) {
	lambda, rho := 0.4, 10.0
	switchPoint := lambda / rho
	below := penalty(switchPoint-1e-9, lambda, rho)
	above := penalty(switchPoint+1e-9, lambda, rho)
	if math.Abs(below-above) > 1e-8 {
		t.Fatalf("penalty jumps at the switch point: %v vs %v", below, above)
	}
	if penalty(1, 0, rho) != 0 {
		t.Fatalf("satisfied constraint with zero multiplier must cost nothing")
	}
}
