package allocation

import (
	"fmt"

	"github.com/iwvelando/edgeworth/internal/economy"
	"gonum.org/v1/gonum/floats"
)

// The grid searches below are brute force: O(G^2) utility
// evaluations, exact up to the grid resolution and indifferent to kinks or
// corners of the feasible region. Scan order is row-major, x1A outer and x2A
// inner. The incumbent starts at the endowment and is replaced only on a
// strict improvement, so the first maximizer in scan order wins ties and
// repeated runs return bit-identical candidates.

// GridPoints returns resolution evenly spaced points covering [0,1].
func GridPoints(resolution int) ([]float64, error) {
	if resolution < 2 {
		return nil, fmt.Errorf("%w: grid resolution %d must be at least 2", economy.ErrInvalidParameter, resolution)
	}
	points := floats.Span(make([]float64, resolution), 0, 1)
	// pin the end so rounding never pushes the last point past the supply
	points[resolution-1] = 1
	return points, nil
}

// ParetoGrid maximizes A's utility over allocations that leave B at least as
// well off as at B's endowment.
func ParetoGrid(params economy.Parameters, resolution int) (Result, error) {
	baseline := Endowment(params)
	return scanGrid(params, resolution, KindPareto, func(c, best Candidate) bool {
		return c.UtilityB >= baseline.UtilityB && c.UtilityA > best.UtilityA
	})
}

// PlannerGrid maximizes the sum of both utilities.
func PlannerGrid(params economy.Parameters, resolution int) (Result, error) {
	return scanGrid(params, resolution, KindPlanner, func(c, best Candidate) bool {
		return c.Welfare > best.Welfare
	})
}

func scanGrid(params economy.Parameters, resolution int, kind string, better func(c, best Candidate) bool) (Result, error) {
	if err := params.Validate(); err != nil {
		return Result{}, err
	}
	points, err := GridPoints(resolution)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Kind:      kind,
		Strategy:  StrategyGrid,
		Best:      Endowment(params),
		Converged: true,
	}
	for _, x1 := range points {
		for _, x2 := range points {
			c := NewCandidate(params, economy.Bundle{X1: x1, X2: x2})
			result.Evaluations++
			if !c.Admissible() {
				result.Rejected++
				continue
			}
			if better(c, result.Best) {
				result.Best = c
				result.Improved = true
			}
		}
	}
	return result, nil
}

// ParetoSet lists every allocation on the (steps+1)-point grid that weakly
// improves both consumers over the endowment, in scan order.
func ParetoSet(params economy.Parameters, steps int) ([]Candidate, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	points, err := GridPoints(steps + 1)
	if err != nil {
		return nil, err
	}
	baseline := Endowment(params)

	var set []Candidate
	for _, x1 := range points {
		for _, x2 := range points {
			c := NewCandidate(params, economy.Bundle{X1: x1, X2: x2})
			if !c.Admissible() {
				continue
			}
			if c.UtilityA >= baseline.UtilityA && c.UtilityB >= baseline.UtilityB {
				set = append(set, c)
			}
		}
	}
	return set, nil
}
