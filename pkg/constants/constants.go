// Package constants provides shared constants for the edgeworth application.
package constants

// Economy constants
const (
	// TotalSupply is the normalized aggregate endowment of each good
	TotalSupply = 1.0

	// NumAgents is the number of consumers; it scales the tatonnement step
	NumAgents = 2

	// DefaultTolerance is the default convergence threshold for excess demand
	DefaultTolerance = 1e-8

	// DefaultMaxIterations is the default iteration cap for the equilibrium solver
	DefaultMaxIterations = 500

	// DefaultStepSize is the default tatonnement adjustment speed (kappa)
	DefaultStepSize = 1.0

	// DefaultPriceGuess is the default seed price for the equilibrium solver
	DefaultPriceGuess = 1.0
)

// Search constants
const (
	// DefaultGridResolution is the default number of grid points per good (N = 75)
	DefaultGridResolution = 76

	// MaxGridResolution caps configured grid resolutions; a 2-D scan costs
	// resolution^2 evaluations
	MaxGridResolution = 5001

	// DefaultPriceGridSteps is the default number of price steps for market-maker grids
	DefaultPriceGridSteps = 75

	// DefaultMinPrice is the lower end of the default market-maker price range
	DefaultMinPrice = 0.5

	// DefaultMaxPrice is the upper end of the default market-maker price range
	DefaultMaxPrice = 2.5

	// DefaultInitialGuess is the interior starting point for optimizer searches
	DefaultInitialGuess = 0.5

	// DefaultOptimizerIterations caps the inner iterations of the numerical optimizer
	DefaultOptimizerIterations = 10000

	// CoarseGridWarning is the resolution under which configuration warns about accuracy
	CoarseGridWarning = 50

	// LargeStepSizeWarning is the step size above which tatonnement may oscillate
	LargeStepSizeWarning = 10.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultShutdownTimeout is how long in-flight solves may finish on shutdown
	DefaultShutdownTimeout = "10s"

	// DefaultRunListLimit is the default number of runs returned by the history endpoint
	DefaultRunListLimit = 20
)
