package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/park-planner/internal/config"
	"github.com/iwvelando/park-planner/internal/planner"
	"github.com/iwvelando/park-planner/pkg/constants"
	"github.com/iwvelando/park-planner/pkg/output"
	"github.com/iwvelando/park-planner/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	tripID := flag.String("trip", "", "stored trip id to optimize instead of the configured trip")
	strategy := flag.String("strategy", "", "strategy override: crowd, priority, consensus, pacing (empty runs all)")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := conf.Logging.NewLogger(*logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
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
	err = validation.ValidateStrategy(*strategy)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	// Validate configuration and display any warnings
	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := planner.New(ctx, logger, conf)
	if err != nil {
		logger.Fatal("failed to initialize planner",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warn("failed to close planner",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	req, err := p.Request(ctx, *tripID, *strategy)
	if err != nil {
		logger.Fatal("failed to load trip",
			zap.String("op", "main"),
			zap.String("trip", *tripID),
			zap.Error(err),
		)
	}

	result, err := p.Runner.Run(ctx, req)
	if err != nil {
		logger.Fatal("failed to optimize trip",
			zap.String("op", "main"),
			zap.String("trip", req.Trip.ID),
			zap.Error(err),
		)
	}

	// Handle output.
	if err := output.Write(os.Stdout, outputFormat, *result); err != nil {
		logger.Fatal("failed to write result",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
