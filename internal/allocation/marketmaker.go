package allocation

import (
	"fmt"
	"math"

	"github.com/iwvelando/edgeworth/internal/economy"
	"github.com/iwvelando/edgeworth/pkg/mathutil"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// MarketMakerCandidate evaluates the allocation when consumer A sets price
// p1, B buys its demand at that price, and A consumes the remainder.
func MarketMakerCandidate(params economy.Parameters, p1 float64) (Candidate, error) {
	demandB, err := params.DemandB(p1)
	if err != nil {
		return Candidate{}, err
	}
	c := NewCandidate(params, demandB.Complement())
	price := p1
	c.Price = &price
	return c, nil
}

// FeasiblePriceInterval returns the prices at which B's demand leaves A with
// non-negative quantities of both goods. The upper end is +Inf when B owns
// none of good 1.
func FeasiblePriceInterval(params economy.Parameters) (lo, hi float64) {
	wB := params.EndowmentB()
	beta := params.Beta
	// x1A = 1 - beta*(p*w1B + w2B)/p >= 0
	lo = beta * wB.X2 / (1 - beta*wB.X1)
	// x2A = 1 - (1-beta)*(p*w1B + w2B) >= 0
	hi = math.Inf(1)
	if wB.X1 > 0 {
		hi = (1/(1-beta) - wB.X2) / wB.X1
	}
	return lo, hi
}

// MarketMakerGrid evaluates the prices lo + (hi-lo)*i/steps for i = 0..steps
// and keeps the one maximizing A's utility. Prices whose allocation would
// give A a negative quantity are skipped.
func MarketMakerGrid(params economy.Parameters, lo, hi float64, steps int) (Result, error) {
	if err := params.Validate(); err != nil {
		return Result{}, err
	}
	if err := checkPriceRange(lo, hi); err != nil {
		return Result{}, err
	}
	if steps < 1 {
		return Result{}, fmt.Errorf("%w: price grid needs at least one step, got %d", economy.ErrInvalidParameter, steps)
	}

	result := Result{
		Kind:      KindMarketMaker,
		Strategy:  StrategyGrid,
		Best:      Endowment(params),
		Converged: true,
	}
	for _, p1 := range floats.Span(make([]float64, steps+1), lo, hi) {
		c, err := MarketMakerCandidate(params, p1)
		if err != nil {
			return Result{}, err
		}
		result.Evaluations++
		if !c.Admissible() {
			result.Rejected++
			continue
		}
		if c.UtilityA > result.Best.UtilityA {
			result.Best = c
			result.Improved = true
		}
	}
	return result, nil
}

// MarketMakerOptimize searches the continuous price range [lo, hi], narrowed
// to the feasible price interval, with the bounded scalar minimizer.
func (s *Searcher) MarketMakerOptimize(params economy.Parameters, lo, hi float64) (Result, error) {
	if err := params.Validate(); err != nil {
		return Result{}, err
	}
	if err := checkPriceRange(lo, hi); err != nil {
		return Result{}, err
	}
	feasLo, feasHi := FeasiblePriceInterval(params)
	lo, hi = math.Max(lo, feasLo), math.Min(hi, feasHi)
	if !(lo < hi) {
		return Result{}, fmt.Errorf("%w: price range does not intersect the feasible interval [%g, %g]",
			economy.ErrInvalidParameter, feasLo, feasHi)
	}

	objective := func(p1 float64) float64 {
		c, err := MarketMakerCandidate(params, p1)
		if err != nil {
			return math.Inf(1)
		}
		return -params.UtilityA(clampBundle(c.A))
	}

	res, err := s.minimizer.MinimizeScalar(objective, lo, hi, params.Tolerance, s.maxIterations)
	if err != nil {
		s.logger.Warn("market maker search failed",
			zap.String("op", "allocation.Searcher.MarketMakerOptimize"),
			zap.Float64("lo", lo),
			zap.Float64("hi", hi),
			zap.Error(err),
		)
		return Result{Kind: KindMarketMaker, Strategy: StrategyOptimizer, Iterations: res.Iterations, Evaluations: res.Evaluations},
			fmt.Errorf("%w: market maker search: %w", economy.ErrOptimizationFailed, err)
	}

	best, err := MarketMakerCandidate(params, res.X[0])
	if err != nil {
		return Result{}, err
	}
	best.A = clampBundle(best.A)
	best.B = best.A.Complement()
	best.UtilityA = params.UtilityA(best.A)
	best.UtilityB = params.UtilityB(best.B)
	best.Welfare = best.UtilityA + best.UtilityB

	return Result{
		Kind:        KindMarketMaker,
		Strategy:    StrategyOptimizer,
		Best:        best,
		Improved:    best.UtilityA > Endowment(params).UtilityA,
		Evaluations: res.Evaluations,
		Iterations:  res.Iterations,
		Converged:   res.Converged,
	}, nil
}

func checkPriceRange(lo, hi float64) error {
	if !mathutil.IsFinite(lo) || !mathutil.IsFinite(hi) || lo <= 0 || lo >= hi {
		return fmt.Errorf("%w: price range [%v, %v] must be positive and non-empty", economy.ErrInvalidPrice, lo, hi)
	}
	return nil
}
