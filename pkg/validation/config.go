// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/edgeworth/pkg/constants"
)

// ValidateStepSize warns when the tatonnement step is large enough to make
// the price oscillate instead of settling.
func ValidateStepSize(stepSize float64) string {
	if stepSize > constants.LargeStepSizeWarning {
		return fmt.Sprintf("Equilibrium step size %g is large (> %g) - the price may oscillate and exhaust the iteration cap",
			stepSize, constants.LargeStepSizeWarning)
	}
	return ""
}

// ValidateTolerance warns when the convergence tolerance is loose enough to
// be visible in reported prices.
func ValidateTolerance(tolerance float64) string {
	if tolerance > 1e-3 {
		return fmt.Sprintf("Tolerance %g is loose - reported prices and allocations are only accurate to about that level", tolerance)
	}
	return ""
}

// ValidateEndowment warns when a consumer starts with none of some good, in
// which case that consumer's endowment utility is zero.
func ValidateEndowment(good1, good2 float64) []string {
	var warnings []string
	if good1 == 0 || good2 == 0 {
		warnings = append(warnings, fmt.Sprintf("Consumer A's endowment (%g, %g) lies on the edge of the box - A's baseline utility is zero", good1, good2))
	}
	if good1 == constants.TotalSupply || good2 == constants.TotalSupply {
		warnings = append(warnings, fmt.Sprintf("Consumer B's endowment (%g, %g) lies on the edge of the box - B's baseline utility is zero",
			constants.TotalSupply-good1, constants.TotalSupply-good2))
	}
	return warnings
}

// ValidateGridResolution warns when a grid is too coarse to locate an
// optimum accurately.
func ValidateGridResolution(searchName string, resolution int) string {
	if resolution < constants.CoarseGridWarning {
		return fmt.Sprintf("Search '%s' uses a coarse grid (%d points per axis) - results are only accurate to about %.3f",
			searchName, resolution, 1/float64(resolution-1))
	}
	return ""
}

// ValidatePriceRange warns when a market-maker price range reaches outside
// the prices at which the consumer setting the price keeps non-negative
// quantities.
func ValidatePriceRange(searchName string, minPrice, maxPrice, feasibleMin, feasibleMax float64) []string {
	var warnings []string
	if minPrice < feasibleMin {
		warnings = append(warnings, fmt.Sprintf("Search '%s' minimum price %g is below the feasible price %g - those prices are skipped",
			searchName, minPrice, feasibleMin))
	}
	if maxPrice > feasibleMax {
		warnings = append(warnings, fmt.Sprintf("Search '%s' maximum price %g is above the feasible price %g - those prices are skipped",
			searchName, maxPrice, feasibleMax))
	}
	return warnings
}

// ValidateOptimizerPriceRange warns when a continuous market-maker search
// has no feasible price to work with. The optimizer clips the range to the
// feasible interval itself, so a partial overlap is not reported.
func ValidateOptimizerPriceRange(searchName string, minPrice, maxPrice, feasibleMin, feasibleMax float64) string {
	if maxPrice < feasibleMin || minPrice > feasibleMax {
		return fmt.Sprintf("Search '%s' price range [%g, %g] misses the feasible prices [%g, %g] - the search will fail",
			searchName, minPrice, maxPrice, feasibleMin, feasibleMax)
	}
	return ""
}

// ConfigValidator collects the configuration values that warnings are derived
// from.
type ConfigValidator struct {
	Economy     EconomyInfo
	Equilibrium EquilibriumInfo
	Searches    []SearchInfo
}

// EconomyInfo is the economy section of a configuration.
type EconomyInfo struct {
	EndowmentGood1 float64
	EndowmentGood2 float64
	Tolerance      float64
}

// EquilibriumInfo is the equilibrium section of a configuration.
type EquilibriumInfo struct {
	StepSize float64
}

// SearchInfo is a single search directive.
type SearchInfo struct {
	Name        string
	Grid        bool
	Resolution  int
	PriceRange  bool
	MinPrice    float64
	MaxPrice    float64
	FeasibleMin float64
	FeasibleMax float64
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	warnings = append(warnings, ValidateEndowment(cv.Economy.EndowmentGood1, cv.Economy.EndowmentGood2)...)
	if warning := ValidateTolerance(cv.Economy.Tolerance); warning != "" {
		warnings = append(warnings, warning)
	}
	if warning := ValidateStepSize(cv.Equilibrium.StepSize); warning != "" {
		warnings = append(warnings, warning)
	}

	for _, search := range cv.Searches {
		if search.Grid {
			if warning := ValidateGridResolution(search.Name, search.Resolution); warning != "" {
				warnings = append(warnings, warning)
			}
		}
		if !search.PriceRange {
			continue
		}
		if search.Grid {
			warnings = append(warnings, ValidatePriceRange(search.Name, search.MinPrice, search.MaxPrice, search.FeasibleMin, search.FeasibleMax)...)
		} else if warning := ValidateOptimizerPriceRange(search.Name, search.MinPrice, search.MaxPrice, search.FeasibleMin, search.FeasibleMax); warning != "" {
			warnings = append(warnings, warning)
		}
	}

	return warnings
}
