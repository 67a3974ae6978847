package economy

import (
	"fmt"
	"math"

	"github.com/iwvelando/edgeworth/pkg/constants"
	"github.com/iwvelando/edgeworth/pkg/mathutil"
)

// CheckPrice returns ErrInvalidPrice unless p1 is a finite positive number.
func CheckPrice(p1 float64) error {
	if !mathutil.IsFinite(p1) || p1 <= 0 {
		return fmt.Errorf("%w: p1=%v must be positive", ErrInvalidPrice, p1)
	}
	return nil
}

// Demand is the Cobb-Douglas demand of a consumer with exponent gamma and
// endowment w facing price p1 for good 1 (good 2 is the numeraire):
//
//	x1 = gamma*(p1*w1 + w2)/p1
//	x2 = (1-gamma)*(p1*w1 + w2)
func Demand(gamma float64, w Bundle, p1 float64) (Bundle, error) {
	if err := CheckPrice(p1); err != nil {
		return Bundle{}, err
	}
	income := w.Value(p1)
	return Bundle{
		X1: gamma * income / p1,
		X2: (1 - gamma) * income,
	}, nil
}

// DemandA is consumer A's utility-maximizing bundle at price p1.
func (p Parameters) DemandA(p1 float64) (Bundle, error) {
	return Demand(p.Alpha, p.EndowmentA, p1)
}

// DemandB is consumer B's utility-maximizing bundle at price p1.
func (p Parameters) DemandB(p1 float64) (Bundle, error) {
	return Demand(p.Beta, p.EndowmentB(), p1)
}

// Utility is x1^gamma * x2^(1-gamma). Negative quantities have no utility
// interpretation and yield NaN.
func Utility(gamma float64, x Bundle) float64 {
	if x.X1 < 0 || x.X2 < 0 {
		return math.NaN()
	}
	return math.Pow(x.X1, gamma) * math.Pow(x.X2, 1-gamma)
}

// UtilityA evaluates consumer A's utility.
func (p Parameters) UtilityA(x Bundle) float64 {
	return Utility(p.Alpha, x)
}

// UtilityB evaluates consumer B's utility.
func (p Parameters) UtilityB(x Bundle) float64 {
	return Utility(p.Beta, x)
}

// ExcessDemand returns aggregate excess demand for both goods at p1.
func (p Parameters) ExcessDemand(p1 float64) (z1, z2 float64, err error) {
	a, err := p.DemandA(p1)
	if err != nil {
		return 0, 0, err
	}
	b, err := p.DemandB(p1)
	if err != nil {
		return 0, 0, err
	}
	return a.X1 + b.X1 - constants.TotalSupply, a.X2 + b.X2 - constants.TotalSupply, nil
}

// ExcessDemandGood1 returns z1(p1) only.
func (p Parameters) ExcessDemandGood1(p1 float64) (float64, error) {
	z1, _, err := p.ExcessDemand(p1)
	return z1, err
}

// AnalyticEquilibriumPrice is the closed-form market-clearing price for
// Cobb-Douglas preferences, used to cross-check the iterative solver.
func (p Parameters) AnalyticEquilibriumPrice() float64 {
	wB := p.EndowmentB()
	num := p.Alpha*p.EndowmentA.X2 + p.Beta*wB.X2
	den := (1-p.Alpha)*p.EndowmentA.X1 + (1-p.Beta)*wB.X1
	return num / den
}
