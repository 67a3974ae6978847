// Package allocation searches the Edgeworth box for allocations that improve
// on the endowment: Pareto improvements for consumer A, the utilitarian
// planner's optimum, and the price consumer A would set as a market maker.
//
// Every search comes in two interchangeable strategies. Grid searches are
// exhaustive and serve as the reference; optimizer searches delegate to the
// constrained minimizer in internal/optimizer and must agree with the grid up
// to its resolution.
package allocation

import (
	"math"

	"github.com/iwvelando/edgeworth/internal/economy"
	"github.com/iwvelando/edgeworth/pkg/constants"
)

// Search kinds.
const (
	KindPareto      = "pareto"
	KindPlanner     = "planner"
	KindMarketMaker = "marketMaker"
	KindParetoSet   = "paretoSet"
)

// Search strategies.
const (
	StrategyGrid      = "grid"
	StrategyOptimizer = "optimizer"
)

// Candidate is one evaluated allocation. B's bundle is the complement of A's.
type Candidate struct {
	A        economy.Bundle `json:"a"`
	B        economy.Bundle `json:"b"`
	UtilityA float64        `json:"utilityA"`
	UtilityB float64        `json:"utilityB"`
	Welfare  float64        `json:"welfare"`
	Price    *float64       `json:"price,omitempty"`
}

// Result is the best candidate found by a search.
type Result struct {
	Kind     string    `json:"kind"`
	Strategy string    `json:"strategy"`
	Best     Candidate `json:"best"`
	// Improved is false when nothing beat the endowment baseline.
	Improved    bool `json:"improved"`
	Evaluations int  `json:"evaluations"`
	Rejected    int  `json:"rejected"`
	Iterations  int  `json:"iterations"`
	Converged   bool `json:"converged"`
	// MaxViolation is how far the optimizer's answer falls short of B's
	// participation constraint; it is within the constraint tolerance
	// whenever the search succeeds.
	MaxViolation float64 `json:"maxViolation,omitempty"`
}

// NewCandidate evaluates the allocation giving consumer A the bundle a.
func NewCandidate(params economy.Parameters, a economy.Bundle) Candidate {
	b := a.Complement()
	uA := params.UtilityA(a)
	uB := params.UtilityB(b)
	return Candidate{
		A:        a,
		B:        b,
		UtilityA: uA,
		UtilityB: uB,
		Welfare:  uA + uB,
	}
}

// Admissible reports whether both consumers receive non-negative quantities
// no larger than the total supply and both utilities are defined.
func (c Candidate) Admissible() bool {
	for _, q := range []float64{c.A.X1, c.A.X2, c.B.X1, c.B.X2} {
		if q < 0 || q > constants.TotalSupply || math.IsNaN(q) {
			return false
		}
	}
	return !math.IsNaN(c.UtilityA) && !math.IsNaN(c.UtilityB)
}

// Endowment is the no-trade allocation, the baseline every search starts from.
func Endowment(params economy.Parameters) Candidate {
	return NewCandidate(params, params.EndowmentA)
}
