package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/edgeworth/internal/allocation"
	"github.com/iwvelando/edgeworth/pkg/constants"
	"github.com/iwvelando/edgeworth/pkg/mathutil"
)

// SearchConfig defines a single allocation search directive.
type SearchConfig struct {
	Name     string `yaml:"name,omitempty" mapstructure:"name"`
	Kind     string `yaml:"kind,omitempty" mapstructure:"kind"`
	Strategy string `yaml:"strategy,omitempty" mapstructure:"strategy"`
	// Resolution is the number of grid points per axis (or prices) for grid
	// searches.
	Resolution int `yaml:"resolution,omitempty" mapstructure:"resolution"`
	// Start is the optimizer's initial allocation for consumer A.
	Start    []float64 `yaml:"start,omitempty" mapstructure:"start"`
	MinPrice *float64  `yaml:"minPrice,omitempty" mapstructure:"minPrice"`
	MaxPrice *float64  `yaml:"maxPrice,omitempty" mapstructure:"maxPrice"`
	// MaxIterations caps each inner optimizer solve; zero uses the default.
	MaxIterations int `yaml:"maxIterations,omitempty" mapstructure:"maxIterations"`
}

// DefaultSearches is the suite run when a configuration names no searches:
// both strategies of every kind, so each optimizer result can be checked
// against its grid.
func DefaultSearches() []SearchConfig {
	var searches []SearchConfig
	for _, kind := range []string{allocation.KindPareto, allocation.KindPlanner, allocation.KindMarketMaker} {
		for _, strategy := range []string{allocation.StrategyGrid, allocation.StrategyOptimizer} {
			searches = append(searches, SearchConfig{Kind: kind, Strategy: strategy})
		}
	}
	return searches
}

// CanonicalSearchKind returns the canonical identifier for a search kind.
func CanonicalSearchKind(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return allocation.KindPareto
	}
	switch strings.ToLower(trimmed) {
	case "pareto", "pareto_improvement", "pareto-improvement":
		return allocation.KindPareto
	case "planner", "social_planner", "social-planner", "utilitarian":
		return allocation.KindPlanner
	case "marketmaker", "market_maker", "market-maker":
		return allocation.KindMarketMaker
	case "paretoset", "pareto_set", "pareto-set", "lens":
		return allocation.KindParetoSet
	default:
		return strings.ToLower(trimmed)
	}
}

// CanonicalStrategy returns the canonical identifier for a search strategy.
func CanonicalStrategy(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return allocation.StrategyGrid
	}
	switch strings.ToLower(trimmed) {
	case "grid", "brute", "bruteforce", "brute_force", "brute-force":
		return allocation.StrategyGrid
	case "optimizer", "optimize", "numerical", "continuous":
		return allocation.StrategyOptimizer
	default:
		return strings.ToLower(trimmed)
	}
}

// DisplayName returns the configured name or one derived from kind and strategy.
func (s *SearchConfig) DisplayName() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return CanonicalSearchKind(s.Kind) + "/" + CanonicalStrategy(s.Strategy)
}

// Normalize ensures defaults and canonical values are applied before validation.
func (s *SearchConfig) Normalize() {
	if s == nil {
		return
	}
	s.Kind = CanonicalSearchKind(s.Kind)
	s.Strategy = CanonicalStrategy(s.Strategy)
	s.Name = s.DisplayName()

	if s.Strategy == allocation.StrategyGrid && s.Resolution == 0 {
		s.Resolution = constants.DefaultGridResolution
		if s.Kind == allocation.KindMarketMaker {
			s.Resolution = constants.DefaultPriceGridSteps + 1
		}
	}
	if s.Strategy == allocation.StrategyOptimizer && len(s.Start) == 0 && s.Kind != allocation.KindMarketMaker {
		s.Start = []float64{constants.DefaultInitialGuess, constants.DefaultInitialGuess}
	}
	if s.Kind == allocation.KindMarketMaker {
		if s.MinPrice == nil {
			lo := constants.DefaultMinPrice
			s.MinPrice = &lo
		}
		if s.MaxPrice == nil {
			hi := constants.DefaultMaxPrice
			s.MaxPrice = &hi
		}
	}
}

// Validate returns an error when the search configuration is unsupported.
func (s *SearchConfig) Validate() error {
	if s == nil {
		return fmt.Errorf("search configuration cannot be nil")
	}

	s.Normalize()

	switch s.Kind {
	case allocation.KindPareto, allocation.KindPlanner, allocation.KindMarketMaker, allocation.KindParetoSet:
		// supported kinds
	default:
		return fmt.Errorf("search kind %q is not supported", s.Kind)
	}
	switch s.Strategy {
	case allocation.StrategyGrid, allocation.StrategyOptimizer:
		// supported strategies
	default:
		return fmt.Errorf("search strategy %q is not supported", s.Strategy)
	}
	if s.Kind == allocation.KindParetoSet && s.Strategy != allocation.StrategyGrid {
		return fmt.Errorf("search kind %q only supports the %s strategy", s.Kind, allocation.StrategyGrid)
	}

	if s.Strategy == allocation.StrategyGrid {
		if s.Resolution < 2 {
			return fmt.Errorf("search resolution %d must be at least 2", s.Resolution)
		}
		if s.Resolution > constants.MaxGridResolution {
			return fmt.Errorf("search resolution %d exceeds the maximum of %d", s.Resolution, constants.MaxGridResolution)
		}
	}
	if s.MaxIterations < 0 {
		return fmt.Errorf("search maxIterations %d cannot be negative", s.MaxIterations)
	}

	if s.Strategy == allocation.StrategyOptimizer && s.Kind != allocation.KindMarketMaker {
		if len(s.Start) != 2 {
			return fmt.Errorf("search start must hold two quantities, got %d", len(s.Start))
		}
		for _, q := range s.Start {
			if !mathutil.InOpenRange(q, 0, constants.TotalSupply) {
				return fmt.Errorf("search start quantity %v must lie strictly between 0 and %v", q, constants.TotalSupply)
			}
		}
	}

	if s.Kind == allocation.KindMarketMaker {
		if *s.MinPrice <= 0 {
			return fmt.Errorf("search minimum price %v must be positive", *s.MinPrice)
		}
		if *s.MinPrice >= *s.MaxPrice {
			return fmt.Errorf("search minimum price %v must be less than maximum %v", *s.MinPrice, *s.MaxPrice)
		}
	}

	return nil
}
