// Package equilibrium finds the market-clearing price of the exchange economy
// by tatonnement: the auctioneer raises the price of good 1 while it is in
// excess demand and lowers it while it is in excess supply.
package equilibrium

import (
	"fmt"
	"math"

	"github.com/iwvelando/edgeworth/internal/economy"
	"github.com/iwvelando/edgeworth/pkg/constants"
)

// Result is the outcome of one solver invocation.
type Result struct {
	// Price is the market-clearing price of good 1, nil when not converged.
	Price             *float64 `json:"price,omitempty"`
	LastPrice         float64  `json:"lastPrice"`
	Guess             float64  `json:"guess"`
	ExcessDemandGood1 float64  `json:"excessDemandGood1"`
	ExcessDemandGood2 float64  `json:"excessDemandGood2"`
	IterationsUsed    int      `json:"iterationsUsed"`
	Converged         bool     `json:"converged"`
	Warnings          []error  `json:"-"`
}

// WalrasConsistent reports whether the second market also cleared.
func (r Result) WalrasConsistent() bool {
	for _, w := range r.Warnings {
		if w != nil {
			return false
		}
	}
	return true
}

// WarningMessages renders the warnings as strings.
func (r Result) WarningMessages() []string {
	if len(r.Warnings) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		msgs = append(msgs, w.Error())
	}
	return msgs
}

// Solve runs the tatonnement loop from guess:
//
//	p1 <- p1 + kappa*z1(p1)/N
//
// until |z1| < tolerance or the iteration cap is reached. Hitting the cap
// returns the partial result together with an error wrapping
// economy.ErrNotConverged. The observer may be nil.
func Solve(params economy.Parameters, guess float64, observer Observer) (Result, error) {
	if err := params.Validate(); err != nil {
		return Result{}, err
	}
	if err := economy.CheckPrice(guess); err != nil {
		return Result{Guess: guess}, fmt.Errorf("seed: %w", err)
	}
	if observer == nil {
		observer = nopObserver{}
	}

	p1 := guess
	t := 0
	var z1 float64
	for {
		var err error
		z1, err = params.ExcessDemandGood1(p1)
		if err != nil {
			return Result{Guess: guess, LastPrice: p1, IterationsUsed: t},
				fmt.Errorf("tatonnement diverged at step %d: %w", t, err)
		}

		done := math.Abs(z1) < params.Tolerance || t >= params.MaxIterations
		observer.Observe(Iteration{Step: t, Price: p1, ExcessDemand: z1, Final: done})
		if done {
			break
		}

		p1 += params.StepSize * z1 / constants.NumAgents
		t++
	}

	result := Result{
		LastPrice:         p1,
		Guess:             guess,
		ExcessDemandGood1: z1,
		IterationsUsed:    t,
	}

	if math.Abs(z1) >= params.Tolerance {
		return result, fmt.Errorf("%w: |z1|=%g after %d iterations from p1=%g",
			economy.ErrNotConverged, math.Abs(z1), t, guess)
	}

	_, z2, err := params.ExcessDemand(p1)
	if err != nil {
		return result, err
	}
	price := p1
	result.Price = &price
	result.Converged = true
	result.ExcessDemandGood2 = z2
	if math.Abs(z2) >= params.Tolerance {
		result.Warnings = append(result.Warnings,
			fmt.Errorf("%w: market for good 2 did not clear, z2=%g", economy.ErrWalrasInconsistency, z2))
	}

	return result, nil
}

// SolveMany solves the economy from each seed independently.
func SolveMany(params economy.Parameters, guesses []float64, observer Observer) ([]Result, error) {
	results := make([]Result, 0, len(guesses))
	for _, guess := range guesses {
		result, err := Solve(params, guess, observer)
		if err != nil {
			return results, fmt.Errorf("seed %g: %w", guess, err)
		}
		results = append(results, result)
	}
	return results, nil
}
