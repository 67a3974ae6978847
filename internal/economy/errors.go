package economy

import "errors"

// Errors surfaced by the exchange economy and the solvers built on it. Callers
// should match them with errors.Is; the returned errors wrap them with detail.
var (
	// ErrInvalidParameter indicates a parameter outside its valid range.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidPrice indicates a zero, negative or non-finite price.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrNotConverged indicates the equilibrium solver hit its iteration cap.
	ErrNotConverged = errors.New("equilibrium not converged")

	// ErrOptimizationFailed indicates the numerical optimizer did not converge.
	ErrOptimizationFailed = errors.New("optimization failed")

	// ErrWalrasInconsistency is attached as a warning when the market for
	// good 2 does not clear at a converged price.
	ErrWalrasInconsistency = errors.New("walras inconsistency")
)
