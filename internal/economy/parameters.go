// Package economy models a two-good, two-consumer pure-exchange economy with
// Cobb-Douglas preferences. Total supply of each good is normalized to one, so
// consumer B always holds the complement of consumer A's endowment.
package economy

import (
	"fmt"

	"github.com/iwvelando/edgeworth/pkg/constants"
	"github.com/iwvelando/edgeworth/pkg/mathutil"
)

// Bundle is a consumption (or endowment) pair of goods 1 and 2.
type Bundle struct {
	X1 float64 `json:"x1"`
	X2 float64 `json:"x2"`
}

// Complement returns the bundle left over from the total supply of one unit
// per good.
func (b Bundle) Complement() Bundle {
	return Bundle{X1: constants.TotalSupply - b.X1, X2: constants.TotalSupply - b.X2}
}

// Value is the bundle's worth at price p1 for good 1 with good 2 as numeraire.
func (b Bundle) Value(p1 float64) float64 {
	return p1*b.X1 + b.X2
}

// NonNegative reports whether neither good is consumed in negative quantity.
func (b Bundle) NonNegative() bool {
	return b.X1 >= 0 && b.X2 >= 0
}

// Parameters is the immutable description of an economy. It is passed by
// value; solvers report their findings in their own result types.
type Parameters struct {
	Alpha         float64 `json:"alpha"`
	Beta          float64 `json:"beta"`
	EndowmentA    Bundle  `json:"endowmentA"`
	Tolerance     float64 `json:"tolerance"`
	MaxIterations int     `json:"maxIterations"`
	StepSize      float64 `json:"stepSize"`
}

// DefaultParameters returns the textbook economy: alpha=1/3, beta=2/3,
// consumer A endowed with (0.8, 0.3).
func DefaultParameters() Parameters {
	return Parameters{
		Alpha:         1.0 / 3.0,
		Beta:          2.0 / 3.0,
		EndowmentA:    Bundle{X1: 0.8, X2: 0.3},
		Tolerance:     constants.DefaultTolerance,
		MaxIterations: constants.DefaultMaxIterations,
		StepSize:      constants.DefaultStepSize,
	}
}

// NewParameters validates and returns a Parameters value.
func NewParameters(alpha, beta float64, endowmentA Bundle, tolerance float64, maxIterations int, stepSize float64) (Parameters, error) {
	p := Parameters{
		Alpha:         alpha,
		Beta:          beta,
		EndowmentA:    endowmentA,
		Tolerance:     tolerance,
		MaxIterations: maxIterations,
		StepSize:      stepSize,
	}
	if err := p.Validate(); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

// Validate checks every field against its domain. A zero iteration cap is
// accepted: the solver then only evaluates its seed.
func (p Parameters) Validate() error {
	if !mathutil.InOpenRange(p.Alpha, 0, 1) {
		return fmt.Errorf("%w: alpha %v must lie in (0,1)", ErrInvalidParameter, p.Alpha)
	}
	if !mathutil.InOpenRange(p.Beta, 0, 1) {
		return fmt.Errorf("%w: beta %v must lie in (0,1)", ErrInvalidParameter, p.Beta)
	}
	if !mathutil.InClosedRange(p.EndowmentA.X1, 0, constants.TotalSupply) {
		return fmt.Errorf("%w: endowment of good 1 %v must lie in [0,1]", ErrInvalidParameter, p.EndowmentA.X1)
	}
	if !mathutil.InClosedRange(p.EndowmentA.X2, 0, constants.TotalSupply) {
		return fmt.Errorf("%w: endowment of good 2 %v must lie in [0,1]", ErrInvalidParameter, p.EndowmentA.X2)
	}
	if !mathutil.IsFinite(p.Tolerance) || p.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance %v must be positive", ErrInvalidParameter, p.Tolerance)
	}
	if p.MaxIterations < 0 {
		return fmt.Errorf("%w: max iterations %d must not be negative", ErrInvalidParameter, p.MaxIterations)
	}
	if !mathutil.IsFinite(p.StepSize) || p.StepSize <= 0 {
		return fmt.Errorf("%w: step size %v must be positive", ErrInvalidParameter, p.StepSize)
	}
	return nil
}

// EndowmentB is consumer B's endowment.
func (p Parameters) EndowmentB() Bundle {
	return p.EndowmentA.Complement()
}
