package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/iwvelando/edgeworth/internal/allocation"
	"github.com/iwvelando/edgeworth/internal/economy"
	"github.com/iwvelando/edgeworth/pkg/constants"
)

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Test fixture",
			configPath: "../../test/test_config.yaml",
		},
		{
			name:       "Example config",
			configPath: "../../" + constants.ExampleConfigFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
				return
			}
			if err := config.Validate(); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestLoadConfigurationStructure(t *testing.T) {
	config, err := LoadConfiguration("../../test/test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	params, err := config.Parameters()
	if err != nil {
		t.Fatalf("Parameters() error = %v", err)
	}
	if params.EndowmentA != (economy.Bundle{X1: 0.8, X2: 0.3}) {
		t.Errorf("Expected endowment (0.8, 0.3), got %+v", params.EndowmentA)
	}
	if params.MaxIterations != 500 || params.StepSize != 1 || params.Tolerance != 1e-8 {
		t.Errorf("Unexpected solver parameters %+v", params)
	}

	guesses := config.PriceGuesses()
	if len(guesses) != 3 || guesses[0] != 1 || guesses[1] != 0.5 || guesses[2] != 2 {
		t.Errorf("Unexpected price guesses %v", guesses)
	}
	if config.Equilibrium.LogInterval != 25 {
		t.Errorf("Expected log interval 25, got %d", config.Equilibrium.LogInterval)
	}

	searches := config.SearchDirectives()
	expected := []struct {
		name     string
		kind     string
		strategy string
	}{
		{"pareto grid", allocation.KindPareto, allocation.StrategyGrid},
		{"pareto optimizer", allocation.KindPareto, allocation.StrategyOptimizer},
		{"planner grid", allocation.KindPlanner, allocation.StrategyGrid},
		{"planner/optimizer", allocation.KindPlanner, allocation.StrategyOptimizer},
		{"market maker prices", allocation.KindMarketMaker, allocation.StrategyGrid},
		{"market maker continuous", allocation.KindMarketMaker, allocation.StrategyOptimizer},
		{"lens", allocation.KindParetoSet, allocation.StrategyGrid},
	}
	if len(searches) != len(expected) {
		t.Fatalf("Expected %d searches, got %d", len(expected), len(searches))
	}
	for i, want := range expected {
		got := searches[i]
		if got.Name != want.name || got.Kind != want.kind || got.Strategy != want.strategy {
			t.Errorf("search %d: expected %s %s/%s, got %s %s/%s", i,
				want.name, want.kind, want.strategy, got.Name, got.Kind, got.Strategy)
		}
	}
	if searches[2].Resolution != constants.DefaultGridResolution {
		t.Errorf("Expected default resolution, got %d", searches[2].Resolution)
	}
	if *searches[5].MinPrice != 0.5 || *searches[5].MaxPrice != 2.5 {
		t.Errorf("Unexpected price range [%v, %v]", *searches[5].MinPrice, *searches[5].MaxPrice)
	}

	if config.Logging.Level != "info" || config.Logging.Format != "console" {
		t.Errorf("Unexpected logging config %+v", config.Logging)
	}
	if config.Output.Format != constants.OutputFormatPretty {
		t.Errorf("Unexpected output format %q", config.Output.Format)
	}
}

func TestLoadConfigurationFromReader(t *testing.T) {
	yaml := `
economy:
  alpha: 0.5
  endowmentA:
    good2: 0.4
equilibrium:
  maxIterations: 0
`
	config, err := LoadConfigurationFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	params, err := config.Parameters()
	if err != nil {
		t.Fatalf("Parameters() error = %v", err)
	}
	defaults := economy.DefaultParameters()
	if params.Alpha != 0.5 || params.Beta != defaults.Beta {
		t.Errorf("Expected alpha 0.5 and default beta, got %v/%v", params.Alpha, params.Beta)
	}
	if params.EndowmentA.X1 != defaults.EndowmentA.X1 || params.EndowmentA.X2 != 0.4 {
		t.Errorf("Unexpected endowment %+v", params.EndowmentA)
	}
	if params.MaxIterations != 0 {
		t.Errorf("Expected an explicit zero iteration cap to be kept, got %d", params.MaxIterations)
	}
	if len(config.SearchDirectives()) != len(DefaultSearches()) {
		t.Errorf("Expected the default search suite")
	}
}

func TestConfigurationValidate(t *testing.T) {
	floatPtr := func(v float64) *float64 { return &v }
	intPtr := func(v int) *int { return &v }

	tests := []struct {
		name    string
		config  Configuration
		wantErr error
	}{
		{name: "defaults", config: Configuration{}},
		{name: "alpha out of range", config: Configuration{Economy: EconomyConfig{Alpha: floatPtr(1)}}, wantErr: economy.ErrInvalidParameter},
		{name: "endowment outside box", config: Configuration{Economy: EconomyConfig{EndowmentA: EndowmentConfig{Good1: floatPtr(1.2)}}}, wantErr: economy.ErrInvalidParameter},
		{name: "negative iterations", config: Configuration{Equilibrium: EquilibriumConfig{MaxIterations: intPtr(-1)}}, wantErr: economy.ErrInvalidParameter},
		{name: "zero guess", config: Configuration{Equilibrium: EquilibriumConfig{PriceGuess: floatPtr(0)}}, wantErr: economy.ErrInvalidPrice},
		{name: "negative extra guess", config: Configuration{Equilibrium: EquilibriumConfig{ExtraGuesses: []float64{1, -2}}}, wantErr: economy.ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	bad := Configuration{Output: OutputConfig{Format: "xml"}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected an output format error")
	}
	bad = Configuration{Searches: []SearchConfig{{Kind: "nash"}}}
	if err := bad.Validate(); err == nil || !strings.Contains(err.Error(), "nash") {
		t.Fatalf("expected an unsupported kind error, got %v", err)
	}
}

func TestValidateConfigurationWarnings(t *testing.T) {
	floatPtr := func(v float64) *float64 { return &v }

	// the default market maker range starts below the feasible price 7/13;
	// only the grid skips those prices, the optimizer clips its range
	defaults := Configuration{}
	warnings := defaults.ValidateConfiguration()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "below the feasible price") ||
		!strings.Contains(warnings[0], "'marketMaker/grid'") {
		t.Fatalf("expected a single grid price range warning for the defaults, got %v", warnings)
	}

	outside := Configuration{Searches: []SearchConfig{
		{Name: "overlap", Kind: "marketMaker", Strategy: "optimizer", MinPrice: floatPtr(0.1), MaxPrice: floatPtr(20)},
		{Name: "cheap", Kind: "marketMaker", Strategy: "optimizer", MinPrice: floatPtr(0.1), MaxPrice: floatPtr(0.2)},
	}}
	warnings = outside.ValidateConfiguration()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "'cheap'") || !strings.Contains(warnings[0], "misses the feasible prices") {
		t.Fatalf("expected one warning for the disjoint optimizer range, got %v", warnings)
	}

	conf := Configuration{
		Equilibrium: EquilibriumConfig{StepSize: floatPtr(50)},
		Searches: []SearchConfig{
			{Name: "coarse", Kind: "pareto", Resolution: 10},
			{Name: "prices", Kind: "marketMaker", MinPrice: floatPtr(0.1), MaxPrice: floatPtr(20)},
		},
	}
	warnings = conf.ValidateConfiguration()
	if len(warnings) != 4 {
		t.Fatalf("expected 4 warnings, got %d: %v", len(warnings), warnings)
	}

	invalid := Configuration{Economy: EconomyConfig{Beta: floatPtr(-1)}}
	if warnings := invalid.ValidateConfiguration(); len(warnings) != 1 {
		t.Fatalf("expected the parameter error as a single warning, got %v", warnings)
	}
}
