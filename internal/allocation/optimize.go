package allocation

import (
	"fmt"

	"github.com/iwvelando/edgeworth/internal/economy"
	"github.com/iwvelando/edgeworth/internal/optimizer"
	"github.com/iwvelando/edgeworth/pkg/constants"
	"github.com/iwvelando/edgeworth/pkg/mathutil"
	"go.uber.org/zap"
)

// Searcher runs the optimizer-backed searches.
type Searcher struct {
	logger        *zap.Logger
	minimizer     *optimizer.Minimizer
	maxIterations int
}

// NewSearcher constructs a Searcher. maxIterations caps each inner optimizer
// solve; zero selects the optimizer default.
func NewSearcher(logger *zap.Logger, maxIterations int) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		logger:        logger,
		minimizer:     optimizer.New(logger),
		maxIterations: maxIterations,
	}
}

// DefaultStart is the interior starting allocation for optimizer searches.
func DefaultStart() economy.Bundle {
	return economy.Bundle{X1: constants.DefaultInitialGuess, X2: constants.DefaultInitialGuess}
}

// ParetoOptimize maximizes A's utility subject to B's utility being at least
// its endowment level, with A's bundle restricted to [0,1]^2.
func (s *Searcher) ParetoOptimize(params economy.Parameters, start economy.Bundle) (Result, error) {
	if err := checkStart(params, start); err != nil {
		return Result{}, err
	}
	baseline := Endowment(params)

	problem := optimizer.Problem{
		Objective: func(x []float64) float64 {
			return -params.UtilityA(economy.Bundle{X1: x[0], X2: x[1]})
		},
		Constraints: []optimizer.Constraint{
			func(x []float64) float64 {
				b := economy.Bundle{X1: x[0], X2: x[1]}.Complement()
				return params.UtilityB(clampBundle(b)) - baseline.UtilityB
			},
		},
		Lower:         []float64{0, 0},
		Upper:         []float64{constants.TotalSupply, constants.TotalSupply},
		Initial:       []float64{start.X1, start.X2},
		Tolerance:     params.Tolerance,
		MaxIterations: s.maxIterations,
	}
	return s.run(params, KindPareto, problem)
}

// PlannerOptimize maximizes the sum of utilities over the Edgeworth box.
func (s *Searcher) PlannerOptimize(params economy.Parameters, start economy.Bundle) (Result, error) {
	if err := checkStart(params, start); err != nil {
		return Result{}, err
	}

	problem := optimizer.Problem{
		Objective: func(x []float64) float64 {
			c := NewCandidate(params, clampBundle(economy.Bundle{X1: x[0], X2: x[1]}))
			return -c.Welfare
		},
		Lower:         []float64{0, 0},
		Upper:         []float64{constants.TotalSupply, constants.TotalSupply},
		Initial:       []float64{start.X1, start.X2},
		Tolerance:     params.Tolerance,
		MaxIterations: s.maxIterations,
	}
	return s.run(params, KindPlanner, problem)
}

func (s *Searcher) run(params economy.Parameters, kind string, problem optimizer.Problem) (Result, error) {
	res, err := s.minimizer.Minimize(problem)
	if err != nil {
		s.logger.Warn("optimizer search failed",
			zap.String("op", "allocation.Searcher.run"),
			zap.String("kind", kind),
			zap.String("status", res.Status),
			zap.Error(err),
		)
		return Result{Kind: kind, Strategy: StrategyOptimizer, Iterations: res.Iterations, Evaluations: res.Evaluations},
			fmt.Errorf("%w: %s search: %w", economy.ErrOptimizationFailed, kind, err)
	}

	best := NewCandidate(params, clampBundle(economy.Bundle{X1: res.X[0], X2: res.X[1]}))
	baseline := Endowment(params)
	improved := best.UtilityA > baseline.UtilityA
	if kind == KindPlanner {
		improved = best.Welfare > baseline.Welfare
	}

	s.logger.Debug("optimizer search converged",
		zap.String("op", "allocation.Searcher.run"),
		zap.String("kind", kind),
		zap.Float64("x1A", best.A.X1),
		zap.Float64("x2A", best.A.X2),
		zap.Int("iterations", res.Iterations),
		zap.Float64("maxViolation", res.MaxViolation),
	)

	return Result{
		Kind:         kind,
		Strategy:     StrategyOptimizer,
		Best:         best,
		Improved:     improved,
		Evaluations:  res.Evaluations,
		Iterations:   res.Iterations,
		Converged:    res.Converged,
		MaxViolation: res.MaxViolation,
	}, nil
}

func checkStart(params economy.Parameters, start economy.Bundle) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if !mathutil.InOpenRange(start.X1, 0, constants.TotalSupply) || !mathutil.InOpenRange(start.X2, 0, constants.TotalSupply) {
		return fmt.Errorf("%w: optimizer start (%v, %v) must be interior", economy.ErrInvalidParameter, start.X1, start.X2)
	}
	return nil
}

// clampBundle removes rounding residue at the box edges.
func clampBundle(b economy.Bundle) economy.Bundle {
	return economy.Bundle{
		X1: mathutil.Clamp(b.X1, 0, constants.TotalSupply),
		X2: mathutil.Clamp(b.X2, 0, constants.TotalSupply),
	}
}
