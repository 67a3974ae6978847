// Package optimizer wraps gonum's unconstrained minimizers into the two
// capabilities the economy searches need: a box- and inequality-constrained
// minimizer and a bounded scalar minimizer.
//
// Box bounds are enforced by a logistic change of variables, so iterates
// never leave the box. Inequality constraints g(x) >= 0 are handled by an
// augmented Lagrangian outer loop around gonum's Nelder-Mead simplex method.
package optimizer

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/edgeworth/pkg/constants"
	"github.com/iwvelando/edgeworth/pkg/mathutil"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/optimize"
)

var (
	// ErrFailed indicates the underlying solver did not converge.
	ErrFailed = errors.New("optimizer did not converge")

	// ErrInvalidProblem indicates a malformed problem definition.
	ErrInvalidProblem = errors.New("invalid optimization problem")
)

const (
	initialPenalty  = 10.0
	maxPenalty      = 1e10
	penaltyGrowth   = 10.0
	maxOuterIter    = 50
	stallIterations = 50
	minInnerTol     = 1e-15

	// reseedMargin is the fraction of each bound's span that warm starts keep
	// away from the box edge, where the logistic map is flat.
	reseedMargin = 1e-6
)

// Constraint is an inequality constraint; x is feasible when g(x) >= 0.
type Constraint func(x []float64) float64

// Problem describes a bounded minimization.
type Problem struct {
	Objective   func(x []float64) float64
	Constraints []Constraint
	Lower       []float64
	Upper       []float64
	Initial     []float64

	// Tolerance is the precision goal on the objective value.
	Tolerance float64

	// ConstraintTolerance bounds the accepted constraint violation. Zero
	// defaults to sqrt(Tolerance).
	ConstraintTolerance float64

	// MaxIterations caps the major iterations of each inner solve.
	MaxIterations int
}

// Result is the solution reported by the minimizer.
type Result struct {
	X               []float64 `json:"x"`
	F               float64   `json:"f"`
	Iterations      int       `json:"iterations"`
	Evaluations     int       `json:"evaluations"`
	OuterIterations int       `json:"outerIterations"`
	MaxViolation    float64   `json:"maxViolation"`
	Status          string    `json:"status"`
	Converged       bool      `json:"converged"`
}

// Minimizer runs minimizations and logs their progress.
type Minimizer struct {
	logger *zap.Logger
}

// New constructs a Minimizer.
func New(logger *zap.Logger) *Minimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Minimizer{logger: logger}
}

func (p *Problem) validate() error {
	if p.Objective == nil {
		return fmt.Errorf("%w: objective cannot be nil", ErrInvalidProblem)
	}
	n := len(p.Lower)
	if n == 0 || len(p.Upper) != n {
		return fmt.Errorf("%w: bounds must be non-empty and of equal length", ErrInvalidProblem)
	}
	if p.Initial != nil && len(p.Initial) != n {
		return fmt.Errorf("%w: initial point has %d coordinates, expected %d", ErrInvalidProblem, len(p.Initial), n)
	}
	for i := 0; i < n; i++ {
		if !mathutil.IsFinite(p.Lower[i]) || !mathutil.IsFinite(p.Upper[i]) || p.Lower[i] >= p.Upper[i] {
			return fmt.Errorf("%w: bound %d [%v, %v] is empty", ErrInvalidProblem, i, p.Lower[i], p.Upper[i])
		}
	}
	if !mathutil.IsFinite(p.Tolerance) || p.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance %v must be positive", ErrInvalidProblem, p.Tolerance)
	}
	return nil
}

// Minimize solves the problem. A nil error means the solver converged and
// the returned point satisfies every constraint within ConstraintTolerance.
func (m *Minimizer) Minimize(p Problem) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, err
	}
	n := len(p.Lower)
	maxIter := p.MaxIterations
	if maxIter <= 0 {
		maxIter = constants.DefaultOptimizerIterations
	}
	feasTol := p.ConstraintTolerance
	if feasTol <= 0 {
		feasTol = math.Sqrt(p.Tolerance)
	}
	innerTol := math.Max(p.Tolerance*p.Tolerance, minInnerTol)

	toBox := func(y []float64) []float64 {
		x := make([]float64, n)
		for i := range y {
			x[i] = mathutil.Logistic(y[i], p.Lower[i], p.Upper[i])
		}
		return x
	}

	initial := make([]float64, n)
	for i := range initial {
		start := (p.Lower[i] + p.Upper[i]) / 2
		if p.Initial != nil {
			start = p.Initial[i]
		}
		initial[i] = mathutil.Logit(start, p.Lower[i], p.Upper[i])
	}
	y := append([]float64(nil), initial...)

	lambda := make([]float64, len(p.Constraints))
	rho := initialPenalty
	prevViolation := math.Inf(1)
	result := Result{}

	for outer := 1; outer <= maxOuterIter; outer++ {
		lagrangian := func(y []float64) float64 {
			x := toBox(y)
			f := p.Objective(x)
			for i, g := range p.Constraints {
				f += penalty(g(x), lambda[i], rho)
			}
			return f
		}

		settings := &optimize.Settings{
			Converger:       &optimize.FunctionConverge{Absolute: innerTol, Iterations: stallIterations},
			MajorIterations: maxIter,
		}
		res, err := optimize.Minimize(optimize.Problem{Func: lagrangian}, y, settings, &optimize.NelderMead{})
		if res != nil {
			result.Iterations += res.Stats.MajorIterations
			result.Evaluations += res.Stats.FuncEvaluations
			result.Status = res.Status.String()
		}
		result.OuterIterations = outer
		if err != nil {
			return result, fmt.Errorf("%w: %v", ErrFailed, err)
		}
		if !succeeded(res.Status) {
			return result, fmt.Errorf("%w: inner solve ended with status %s", ErrFailed, res.Status)
		}

		x := toBox(res.X)
		result.X = x
		result.F = p.Objective(x)

		violation, complementarity := 0.0, 0.0
		for i, g := range p.Constraints {
			gx := g(x)
			violation = math.Max(violation, math.Max(0, -gx))
			complementarity = math.Max(complementarity, math.Abs(math.Min(gx, lambda[i]/rho)))
			lambda[i] = math.Max(0, lambda[i]-rho*gx)
		}
		result.MaxViolation = violation

		m.logger.Debug("augmented lagrangian iteration",
			zap.String("op", "optimizer.Minimize"),
			zap.Int("outer", outer),
			zap.Float64s("x", x),
			zap.Float64("f", result.F),
			zap.Float64("violation", violation),
			zap.Float64("penalty", rho),
		)

		if complementarity <= feasTol {
			result.Converged = true
			return result, nil
		}
		stalled := violation > 0.25*prevViolation
		prevViolation = violation
		if stalled {
			// A pass that barely reduced the violation may have run into a
			// flat corner of the box; retry from the initial point with the
			// larger penalty and the updated multipliers.
			rho = math.Min(rho*penaltyGrowth, maxPenalty)
			y = append(y[:0], initial...)
			continue
		}
		y = p.warmStart(x)
	}

	return result, fmt.Errorf("%w: constraint violation %g above %g after %d outer iterations",
		ErrFailed, result.MaxViolation, feasTol, maxOuterIter)
}

// warmStart maps x back to the unconstrained space, pulled inside the box by
// reseedMargin so the next pass can still move every coordinate.
func (p *Problem) warmStart(x []float64) []float64 {
	y := make([]float64, len(x))
	for i := range x {
		margin := reseedMargin * (p.Upper[i] - p.Lower[i])
		inside := mathutil.Clamp(x[i], p.Lower[i]+margin, p.Upper[i]-margin)
		y[i] = mathutil.Logit(inside, p.Lower[i], p.Upper[i])
	}
	return y
}

// MinimizeScalar minimizes f over the open interval (lo, hi).
func (m *Minimizer) MinimizeScalar(f func(float64) float64, lo, hi, tolerance float64, maxIterations int) (Result, error) {
	if f == nil {
		return Result{}, fmt.Errorf("%w: objective cannot be nil", ErrInvalidProblem)
	}
	return m.Minimize(Problem{
		Objective:     func(x []float64) float64 { return f(x[0]) },
		Lower:         []float64{lo},
		Upper:         []float64{hi},
		Tolerance:     tolerance,
		MaxIterations: maxIterations,
	})
}

// penalty is the augmented Lagrangian term for g >= 0 with multiplier
// lambda and penalty weight rho.
func penalty(g, lambda, rho float64) float64 {
	if rho*g <= lambda {
		return -lambda*g + rho/2*g*g
	}
	return -lambda * lambda / (2 * rho)
}

func succeeded(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.FunctionConvergence, optimize.GradientThreshold, optimize.MethodConverge:
		return true
	default:
		return false
	}
}
