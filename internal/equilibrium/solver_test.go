package equilibrium

import (
	"errors"
	"math"
	"testing"

	"github.com/iwvelando/edgeworth/internal/economy"
	"go.uber.org/zap"
)

func defaultParams(t *testing.T) economy.Parameters {
	t.Helper()
	p, err := economy.NewParameters(1.0/3.0, 2.0/3.0, economy.Bundle{X1: 0.8, X2: 0.3}, 1e-8, 500, 1.0)
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}
	return p
}

func TestSolveConvergesToMarketClearingPrice(t *testing.T) {
	params := defaultParams(t)

	result, err := Solve(params, 1.0, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !result.Converged {
		t.Fatalf("expected convergence")
	}
	if result.Price == nil {
		t.Fatalf("expected a price")
	}
	if math.Abs(result.ExcessDemandGood1) >= 1e-8 {
		t.Fatalf("expected |z1| < 1e-8, got %g", result.ExcessDemandGood1)
	}
	if math.Abs(result.ExcessDemandGood2) >= 10*params.Tolerance {
		t.Fatalf("expected z2 near zero, got %g", result.ExcessDemandGood2)
	}
	if !result.WalrasConsistent() {
		t.Fatalf("unexpected warnings: %v", result.WarningMessages())
	}
	if math.Abs(*result.Price-params.AnalyticEquilibriumPrice()) > 1e-7 {
		t.Fatalf("price %v differs from analytic %v", *result.Price, params.AnalyticEquilibriumPrice())
	}
	if result.IterationsUsed <= 0 || result.IterationsUsed > params.MaxIterations {
		t.Fatalf("unexpected iteration count %d", result.IterationsUsed)
	}
}

// Walras' law gives z2 = -p1*z1, so above p1 = 1 good 2 can miss the
// tolerance even though good 1 cleared.
func TestSolveWarnsWhenGoodTwoDoesNotClear(t *testing.T) {
	params, err := economy.NewParameters(0.6, 0.6, economy.Bundle{X1: 0.5, X2: 0.5}, 1e-8, 500, 1.0)
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}

	for _, guess := range []float64{1.0, 0.5, 2.0} {
		result, err := Solve(params, guess, nil)
		if err != nil {
			t.Fatalf("seed %v: the warning must not be an error, got %v", guess, err)
		}
		if !result.Converged || result.Price == nil {
			t.Fatalf("seed %v: expected convergence, got %+v", guess, result)
		}
		if math.Abs(*result.Price-1.5) > 1e-6 {
			t.Fatalf("seed %v: price %v, want 1.5", guess, *result.Price)
		}
		if math.Abs(result.ExcessDemandGood2) < params.Tolerance {
			t.Fatalf("seed %v: expected |z2| >= tolerance, got %v", guess, result.ExcessDemandGood2)
		}
		if result.WalrasConsistent() {
			t.Fatalf("seed %v: expected a Walras inconsistency", guess)
		}
		if len(result.Warnings) != 1 || !errors.Is(result.Warnings[0], economy.ErrWalrasInconsistency) {
			t.Fatalf("seed %v: unexpected warnings %v", guess, result.Warnings)
		}
		if msgs := result.WarningMessages(); len(msgs) != 1 {
			t.Fatalf("seed %v: unexpected messages %v", guess, msgs)
		}
	}
}

func TestSolveRejectsNonPositiveSeed(t *testing.T) {
	params := defaultParams(t)
	for _, guess := range []float64{0, -1} {
		var trace Trace
		result, err := Solve(params, guess, &trace)
		if !errors.Is(err, economy.ErrInvalidPrice) {
			t.Fatalf("guess %v: expected ErrInvalidPrice, got %v", guess, err)
		}
		if result.IterationsUsed != 0 {
			t.Fatalf("expected zero iterations, got %d", result.IterationsUsed)
		}
		if len(trace.Iterations) != 0 {
			t.Fatalf("expected no observed iterations, got %d", len(trace.Iterations))
		}
	}
}

func TestSolveRespectsZeroIterationCap(t *testing.T) {
	params := defaultParams(t)
	params.MaxIterations = 0

	result, err := Solve(params, 1.0, nil)
	if !errors.Is(err, economy.ErrNotConverged) {
		t.Fatalf("expected ErrNotConverged, got %v", err)
	}
	if result.Converged {
		t.Fatalf("expected converged=false")
	}
	if result.IterationsUsed != 0 {
		t.Fatalf("expected zero iterations, got %d", result.IterationsUsed)
	}
	if result.Price != nil {
		t.Fatalf("expected no price for an unconverged result")
	}
	if result.LastPrice != 1.0 {
		t.Fatalf("expected last price to be the seed, got %v", result.LastPrice)
	}
}

func TestSolveReportsNotConvergedAtCap(t *testing.T) {
	params := defaultParams(t)
	params.MaxIterations = 3

	result, err := Solve(params, 1.0, nil)
	if !errors.Is(err, economy.ErrNotConverged) {
		t.Fatalf("expected ErrNotConverged, got %v", err)
	}
	if result.IterationsUsed != 3 {
		t.Fatalf("expected 3 iterations, got %d", result.IterationsUsed)
	}
	if result.Converged || result.Price != nil {
		t.Fatalf("unconverged result must not carry a price")
	}
}

func TestSolveTerminatesWhenOscillating(t *testing.T) {
	params := defaultParams(t)
	params.StepSize = 3.9
	params.MaxIterations = 200

	result, err := Solve(params, 5.0, nil)
	if err == nil {
		if !result.Converged {
			t.Fatalf("nil error must mean convergence")
		}
		return
	}
	if !errors.Is(err, economy.ErrNotConverged) && !errors.Is(err, economy.ErrInvalidPrice) {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IterationsUsed > params.MaxIterations {
		t.Fatalf("iteration cap exceeded: %d", result.IterationsUsed)
	}
}

func TestSolveObserverSeesEveryStep(t *testing.T) {
	params := defaultParams(t)
	var trace Trace

	result, err := Solve(params, 1.0, &trace)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(trace.Iterations) != result.IterationsUsed+1 {
		t.Fatalf("expected %d observations, got %d", result.IterationsUsed+1, len(trace.Iterations))
	}
	last, ok := trace.Last()
	if !ok || !last.Final {
		t.Fatalf("expected final iteration to be flagged")
	}
	if last.Price != result.LastPrice {
		t.Fatalf("trace price %v does not match result %v", last.Price, result.LastPrice)
	}
	for i, it := range trace.Iterations[:len(trace.Iterations)-1] {
		if it.Step != i || it.Final {
			t.Fatalf("unexpected iteration %d: %+v", i, it)
		}
	}
}

func TestSolveIsIndependentOfSeed(t *testing.T) {
	params := defaultParams(t)

	results, err := SolveMany(params, []float64{0.5, 1.0, 2.0}, LogObserver(zap.NewNop(), 25))
	if err != nil {
		t.Fatalf("SolveMany: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected three results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Converged || math.Abs(*r.Price-*results[0].Price) > 1e-7 {
			t.Fatalf("seed %v converged to %v", r.Guess, r.LastPrice)
		}
	}
}

func TestSolveDoesNotMutateParameters(t *testing.T) {
	params := defaultParams(t)
	before := params
	if _, err := Solve(params, 1.0, nil); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if params != before {
		t.Fatalf("parameters changed: %+v vs %+v", params, before)
	}
}

func TestLogObserverFiltersSteps(t *testing.T) {
	var seen []int
	inner := ObserverFunc(func(it Iteration) { seen = append(seen, it.Step) })
	obs := MultiObserver(inner, LogObserver(nil, 25))
	for i := 0; i < 30; i++ {
		obs.Observe(Iteration{Step: i})
	}
	if len(seen) != 30 {
		t.Fatalf("expected every step forwarded to the inner observer, got %d", len(seen))
	}
}
