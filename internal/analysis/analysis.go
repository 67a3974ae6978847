// Package analysis runs a configured study of the exchange economy: the
// competitive equilibrium from every configured seed followed by each
// allocation search directive.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/edgeworth/internal/allocation"
	"github.com/iwvelando/edgeworth/internal/config"
	"github.com/iwvelando/edgeworth/internal/economy"
	"github.com/iwvelando/edgeworth/internal/equilibrium"
	"github.com/iwvelando/edgeworth/pkg/optimization"
	"go.uber.org/zap"
)

const defaultLogInterval = 25

// OracleTolerance is how far an optimizer result may fall below the grid
// result of the same kind before the run reports a warning.
const OracleTolerance = 1e-3

// EquilibriumRun is the outcome of the tatonnement solver from one seed.
type EquilibriumRun struct {
	equilibrium.Result
	Messages []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Report holds everything produced by one Run.
type Report struct {
	RunID      string               `json:"runId"`
	CreatedAt  time.Time            `json:"createdAt"`
	Parameters economy.Parameters   `json:"parameters"`
	Endowment  allocation.Candidate `json:"endowment"`
	// Price is the equilibrium price from the primary seed, nil when that
	// solve did not converge.
	Price         *float64               `json:"price,omitempty"`
	AnalyticPrice float64                `json:"analyticPrice"`
	Equilibria    []EquilibriumRun       `json:"equilibria"`
	Searches      []optimization.Summary `json:"searches"`
	Warnings      []string               `json:"warnings,omitempty"`
}

// Runner executes a configuration.
type Runner struct {
	logger *zap.Logger
	conf   *config.Configuration
	now    func() time.Time
}

// NewRunner constructs a Runner for the provided configuration.
func NewRunner(logger *zap.Logger, conf *config.Configuration) (*Runner, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, conf: conf, now: time.Now}, nil
}

// Run validates the configuration, solves the equilibrium and runs every
// search directive. Search failures are recorded on their summaries and do
// not abort the run; configuration errors do.
func (r *Runner) Run() (*Report, error) {
	if err := r.conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	params, err := r.conf.Parameters()
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:         uuid.New().String(),
		CreatedAt:     r.now().UTC(),
		Parameters:    params,
		Endowment:     allocation.Endowment(params),
		AnalyticPrice: params.AnalyticEquilibriumPrice(),
		Warnings:      r.conf.ValidateConfiguration(),
	}
	logger := r.logger.With(zap.String("runID", report.RunID))

	r.solveEquilibria(logger, params, report)

	for _, directive := range r.conf.SearchDirectives() {
		summary := r.runSearch(logger, params, directive)
		if summary.Failed() {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Search '%s' failed: %s", summary.Name, summary.Error))
		}
		report.Searches = append(report.Searches, summary)
	}

	report.Warnings = append(report.Warnings, compareWithGrid(report.Searches)...)

	logger.Info("analysis complete",
		zap.String("op", "analysis.Run"),
		zap.Int("equilibria", len(report.Equilibria)),
		zap.Int("searches", len(report.Searches)),
		zap.Int("warnings", len(report.Warnings)),
	)

	return report, nil
}

func (r *Runner) solveEquilibria(logger *zap.Logger, params economy.Parameters, report *Report) {
	interval := r.conf.Equilibrium.LogInterval
	if interval == 0 {
		interval = defaultLogInterval
	}
	observer := equilibrium.LogObserver(logger, interval)

	for i, guess := range r.conf.PriceGuesses() {
		result, err := equilibrium.Solve(params, guess, observer)
		run := EquilibriumRun{Result: result, Messages: result.WarningMessages()}
		if err != nil {
			run.Error = err.Error()
			logger.Warn("equilibrium solve did not converge",
				zap.String("op", "analysis.solveEquilibria"),
				zap.Float64("guess", guess),
				zap.Int("iterations", result.IterationsUsed),
				zap.Error(err),
			)
			report.Warnings = append(report.Warnings, fmt.Sprintf("Equilibrium from p1=%g: %s", guess, err))
		}
		for _, message := range run.Messages {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Equilibrium from p1=%g: %s", guess, message))
		}
		if i == 0 {
			report.Price = result.Price
		}
		if result.Converged {
			logger.Info("equilibrium found",
				zap.String("op", "analysis.solveEquilibria"),
				zap.Float64("guess", guess),
				zap.Float64("p1", *result.Price),
				zap.Int("iterations", result.IterationsUsed),
			)
		}
		report.Equilibria = append(report.Equilibria, run)
	}
}

func (r *Runner) runSearch(logger *zap.Logger, params economy.Parameters, directive config.SearchConfig) optimization.Summary {
	searcher := allocation.NewSearcher(logger, directive.MaxIterations)

	var (
		result allocation.Result
		err    error
		set    []allocation.Candidate
	)
	switch directive.Kind {
	case allocation.KindPareto:
		if directive.Strategy == allocation.StrategyGrid {
			result, err = allocation.ParetoGrid(params, directive.Resolution)
		} else {
			result, err = searcher.ParetoOptimize(params, startOf(directive))
		}
	case allocation.KindPlanner:
		if directive.Strategy == allocation.StrategyGrid {
			result, err = allocation.PlannerGrid(params, directive.Resolution)
		} else {
			result, err = searcher.PlannerOptimize(params, startOf(directive))
		}
	case allocation.KindMarketMaker:
		if directive.Strategy == allocation.StrategyGrid {
			result, err = allocation.MarketMakerGrid(params, *directive.MinPrice, *directive.MaxPrice, directive.Resolution-1)
		} else {
			result, err = searcher.MarketMakerOptimize(params, *directive.MinPrice, *directive.MaxPrice)
		}
	case allocation.KindParetoSet:
		set, err = allocation.ParetoSet(params, directive.Resolution-1)
		result = paretoSetResult(params, set, directive.Resolution)
	default:
		err = fmt.Errorf("%w: search kind %q", economy.ErrInvalidParameter, directive.Kind)
	}

	summary := summarize(directive, result)
	summary.SetSize = len(set)
	if err != nil {
		summary.Error = err.Error()
		if errors.Is(err, economy.ErrOptimizationFailed) {
			summary.Notes = append(summary.Notes, "optimizer did not converge; no allocation reported")
		}
		logger.Warn("search failed",
			zap.String("op", "analysis.runSearch"),
			zap.String("search", directive.Name),
			zap.Error(err),
		)
		return summary
	}
	if !result.Improved && directive.Kind != allocation.KindParetoSet {
		summary.Notes = append(summary.Notes, "no allocation improves on the endowment")
	}

	logger.Info("search complete",
		zap.String("op", "analysis.runSearch"),
		zap.String("search", summary.Name),
		zap.String("kind", summary.Kind),
		zap.String("strategy", summary.Strategy),
		zap.Float64("x1A", summary.X1A),
		zap.Float64("x2A", summary.X2A),
		zap.Float64("utilityA", summary.UtilityA),
		zap.Float64("utilityB", summary.UtilityB),
		zap.Int("evaluations", summary.Evaluations),
		zap.Bool("converged", summary.Converged),
	)
	return summary
}

func startOf(directive config.SearchConfig) economy.Bundle {
	if len(directive.Start) != 2 {
		return allocation.DefaultStart()
	}
	return economy.Bundle{X1: directive.Start[0], X2: directive.Start[1]}
}

// paretoSetResult reports the member of the set that is best for consumer A.
func paretoSetResult(params economy.Parameters, set []allocation.Candidate, resolution int) allocation.Result {
	result := allocation.Result{
		Kind:        allocation.KindParetoSet,
		Strategy:    allocation.StrategyGrid,
		Best:        allocation.Endowment(params),
		Evaluations: resolution * resolution,
		Converged:   true,
	}
	for _, c := range set {
		if c.UtilityA > result.Best.UtilityA {
			result.Best = c
			result.Improved = true
		}
	}
	return result
}

func summarize(directive config.SearchConfig, result allocation.Result) optimization.Summary {
	summary := optimization.Summary{
		Name:        directive.Name,
		Kind:        directive.Kind,
		Strategy:    directive.Strategy,
		X1A:         result.Best.A.X1,
		X2A:         result.Best.A.X2,
		X1B:         result.Best.B.X1,
		X2B:         result.Best.B.X2,
		UtilityA:    result.Best.UtilityA,
		UtilityB:    result.Best.UtilityB,
		Welfare:     result.Best.Welfare,
		Price:       result.Best.Price,
		Improved:    result.Improved,
		Evaluations: result.Evaluations,
		Rejected:    result.Rejected,
		Iterations:  result.Iterations,
		Converged:   result.Converged,

		MaxViolation: result.MaxViolation,
	}
	if directive.Strategy == allocation.StrategyGrid {
		summary.Resolution = directive.Resolution
	}
	if result.MaxViolation > 0 {
		summary.Notes = append(summary.Notes,
			fmt.Sprintf("participation constraint met to within %.2e", result.MaxViolation))
	}
	return summary
}

// compareWithGrid checks every optimizer result against the finest grid
// result of the same kind, noting the gap on the optimizer summary. An
// optimizer that falls short of the grid by more than OracleTolerance
// produces a warning.
func compareWithGrid(searches []optimization.Summary) []string {
	var warnings []string
	for i := range searches {
		opt := &searches[i]
		if opt.Strategy != allocation.StrategyOptimizer || opt.Failed() {
			continue
		}
		grid := finestGrid(searches, opt.Kind)
		if grid == nil {
			continue
		}
		gap := opt.Objective() - grid.Objective()
		opt.Notes = append(opt.Notes, fmt.Sprintf("%s grid (%d points) reached %.6f; gap %+.2e",
			grid.Name, grid.Resolution, grid.Objective(), gap))
		if gap < -OracleTolerance {
			warnings = append(warnings, fmt.Sprintf("Search '%s' is %.2e below grid search '%s'",
				opt.Name, math.Abs(gap), grid.Name))
		}
	}
	return warnings
}

func finestGrid(searches []optimization.Summary, kind string) *optimization.Summary {
	var best *optimization.Summary
	for i := range searches {
		s := &searches[i]
		if s.Kind != kind || s.Strategy != allocation.StrategyGrid || s.Failed() {
			continue
		}
		if best == nil || s.Resolution > best.Resolution {
			best = s
		}
	}
	return best
}
