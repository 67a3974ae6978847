package main

import (
	"flag"
	"fmt"

	"github.com/iwvelando/edgeworth/internal/analysis"
	"github.com/iwvelando/edgeworth/internal/config"
	"github.com/iwvelando/edgeworth/internal/logging"
	"github.com/iwvelando/edgeworth/internal/store"
	"github.com/iwvelando/edgeworth/pkg/constants"
	"github.com/iwvelando/edgeworth/pkg/output"
	"github.com/iwvelando/edgeworth/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	runner, err := analysis.NewRunner(logger, conf)
	if err != nil {
		logger.Fatal("failed to initialize analysis",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	report, err := runner.Run()
	if err != nil {
		logger.Fatal("failed to run analysis",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	for _, warning := range report.Warnings {
		logger.Warn("Analysis warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if conf.Store.Path != "" {
		saveReport(logger, conf.Store.Path, report)
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(report)
	case constants.OutputFormatCSV:
		output.CsvFormat(report)
	case constants.OutputFormatJSON:
		if err := output.JSONFormat(report); err != nil {
			logger.Fatal("failed to write JSON output",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}

// saveReport records the run in the history database. Failures are logged
// and do not affect the printed report.
func saveReport(logger *zap.Logger, path string, report *analysis.Report) {
	runs, err := store.Open(path)
	if err != nil {
		logger.Error("failed to open run history",
			zap.String("op", "main.saveReport"),
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}
	defer func() {
		_ = runs.Close()
	}()

	if err := runs.SaveReport(report); err != nil {
		logger.Error("failed to save run",
			zap.String("op", "main.saveReport"),
			zap.String("runID", report.RunID),
			zap.Error(err),
		)
		return
	}
	logger.Info("run saved",
		zap.String("op", "main.saveReport"),
		zap.String("runID", report.RunID),
		zap.String("path", path),
	)
}
