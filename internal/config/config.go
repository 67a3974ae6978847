// Package config defines the data structures related to configuration and
// includes functions for loading, defaulting and validating it.
package config

import (
	"fmt"
	"io"

	"github.com/iwvelando/edgeworth/internal/allocation"
	"github.com/iwvelando/edgeworth/internal/economy"
	"github.com/iwvelando/edgeworth/pkg/constants"
	"github.com/iwvelando/edgeworth/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for edgeworth.
type Configuration struct {
	Economy     EconomyConfig     `yaml:"economy,omitempty" mapstructure:"economy"`
	Equilibrium EquilibriumConfig `yaml:"equilibrium,omitempty" mapstructure:"equilibrium"`
	Searches    []SearchConfig    `yaml:"searches,omitempty" mapstructure:"searches"`
	Logging     LoggingConfig     `yaml:"logging,omitempty" mapstructure:"logging"`
	Output      OutputConfig      `yaml:"output,omitempty" mapstructure:"output"`
	Store       StoreConfig       `yaml:"store,omitempty" mapstructure:"store"`
}

// EconomyConfig describes the exchange economy. Unset values fall back to the
// defaults of economy.DefaultParameters.
type EconomyConfig struct {
	Alpha      *float64        `yaml:"alpha,omitempty" mapstructure:"alpha"`
	Beta       *float64        `yaml:"beta,omitempty" mapstructure:"beta"`
	EndowmentA EndowmentConfig `yaml:"endowmentA,omitempty" mapstructure:"endowmentA"`
	Tolerance  *float64        `yaml:"tolerance,omitempty" mapstructure:"tolerance"`
}

// EndowmentConfig is consumer A's initial holding of each good.
type EndowmentConfig struct {
	Good1 *float64 `yaml:"good1,omitempty" mapstructure:"good1"`
	Good2 *float64 `yaml:"good2,omitempty" mapstructure:"good2"`
}

// EquilibriumConfig controls the tatonnement solver.
type EquilibriumConfig struct {
	PriceGuess    *float64 `yaml:"priceGuess,omitempty" mapstructure:"priceGuess"`
	MaxIterations *int     `yaml:"maxIterations,omitempty" mapstructure:"maxIterations"`
	StepSize      *float64 `yaml:"stepSize,omitempty" mapstructure:"stepSize"`
	// ExtraGuesses are additional seeds solved alongside PriceGuess.
	ExtraGuesses []float64 `yaml:"extraGuesses,omitempty" mapstructure:"extraGuesses"`
	// LogInterval is how often (in iterations) solver progress is logged.
	LogInterval int `yaml:"logInterval,omitempty" mapstructure:"logInterval"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// StoreConfig enables the run history database when Path is set.
type StoreConfig struct {
	Path string `yaml:"path,omitempty" mapstructure:"path"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

// Parameters builds validated economy parameters from the configuration.
func (c *Configuration) Parameters() (economy.Parameters, error) {
	params := economy.DefaultParameters()
	if c.Economy.Alpha != nil {
		params.Alpha = *c.Economy.Alpha
	}
	if c.Economy.Beta != nil {
		params.Beta = *c.Economy.Beta
	}
	if c.Economy.EndowmentA.Good1 != nil {
		params.EndowmentA.X1 = *c.Economy.EndowmentA.Good1
	}
	if c.Economy.EndowmentA.Good2 != nil {
		params.EndowmentA.X2 = *c.Economy.EndowmentA.Good2
	}
	if c.Economy.Tolerance != nil {
		params.Tolerance = *c.Economy.Tolerance
	}
	if c.Equilibrium.MaxIterations != nil {
		params.MaxIterations = *c.Equilibrium.MaxIterations
	}
	if c.Equilibrium.StepSize != nil {
		params.StepSize = *c.Equilibrium.StepSize
	}
	return economy.NewParameters(params.Alpha, params.Beta, params.EndowmentA,
		params.Tolerance, params.MaxIterations, params.StepSize)
}

// PriceGuesses returns the seeds for the equilibrium solver, the primary
// guess first.
func (c *Configuration) PriceGuesses() []float64 {
	guess := constants.DefaultPriceGuess
	if c.Equilibrium.PriceGuess != nil {
		guess = *c.Equilibrium.PriceGuess
	}
	return append([]float64{guess}, c.Equilibrium.ExtraGuesses...)
}

// SearchDirectives returns the configured searches, or the default suite
// when none are configured. Every directive is normalized.
func (c *Configuration) SearchDirectives() []SearchConfig {
	searches := c.Searches
	if len(searches) == 0 {
		searches = DefaultSearches()
	}
	normalized := make([]SearchConfig, len(searches))
	for i := range searches {
		normalized[i] = searches[i]
		normalized[i].Normalize()
	}
	return normalized
}

// Validate returns an error when the configuration cannot be run.
func (c *Configuration) Validate() error {
	if _, err := c.Parameters(); err != nil {
		return err
	}
	for i, guess := range c.PriceGuesses() {
		if err := economy.CheckPrice(guess); err != nil {
			return fmt.Errorf("price guess %d: %w", i, err)
		}
	}
	if c.Equilibrium.LogInterval < 0 {
		return fmt.Errorf("%w: log interval %d cannot be negative", economy.ErrInvalidParameter, c.Equilibrium.LogInterval)
	}
	for i := range c.Searches {
		if err := c.Searches[i].Validate(); err != nil {
			return fmt.Errorf("search %d (%s): %w", i, c.Searches[i].DisplayName(), err)
		}
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			return err
		}
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	params, err := c.Parameters()
	if err != nil {
		return []string{err.Error()}
	}

	feasibleMin, feasibleMax := allocation.FeasiblePriceInterval(params)
	var searches []validation.SearchInfo
	for _, search := range c.SearchDirectives() {
		info := validation.SearchInfo{
			Name:       search.DisplayName(),
			Grid:       search.Strategy == allocation.StrategyGrid,
			Resolution: search.Resolution,
		}
		if search.Kind == allocation.KindMarketMaker && search.MinPrice != nil && search.MaxPrice != nil {
			info.PriceRange = true
			info.MinPrice = *search.MinPrice
			info.MaxPrice = *search.MaxPrice
			info.FeasibleMin = feasibleMin
			info.FeasibleMax = feasibleMax
		}
		searches = append(searches, info)
	}

	validator := validation.ConfigValidator{
		Economy: validation.EconomyInfo{
			EndowmentGood1: params.EndowmentA.X1,
			EndowmentGood2: params.EndowmentA.X2,
			Tolerance:      params.Tolerance,
		},
		Equilibrium: validation.EquilibriumInfo{StepSize: params.StepSize},
		Searches:    searches,
	}
	return validator.ValidateAll()
}
