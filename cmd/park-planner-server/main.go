package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/park-planner/internal/config"
	"github.com/iwvelando/park-planner/internal/metrics"
	"github.com/iwvelando/park-planner/internal/planner"
	"github.com/iwvelando/park-planner/internal/server"
	"github.com/iwvelando/park-planner/pkg/constants"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	serverConfigLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	plannerConfigLocation := flag.String("planner-config", "", "path to planner configuration file (overrides plannerConfig)")
	addressFlag := flag.String("address", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	serverConf, err := server.LoadConfig(*serverConfigLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *serverConfigLocation, err)
		os.Exit(1)
	}
	if *addressFlag != "" {
		serverConf.Address = *addressFlag
	}

	logger, err := serverConf.Logging.NewLogger(*logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	plannerPath := serverConf.PlannerConfigPath(*plannerConfigLocation)
	conf := config.DefaultConfiguration()
	if plannerPath != "" {
		conf, err = config.LoadConfiguration(plannerPath)
		if err != nil {
			logger.Fatal("failed to load planner configuration",
				zap.String("op", "main"),
				zap.String("path", plannerPath),
				zap.Error(err),
			)
		}
		for _, warning := range conf.ValidateConfiguration() {
			logger.Warn("Configuration warning: "+warning,
				zap.String("op", "main"),
			)
		}
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

	metrics.RegisterDefault()

	srv := &http.Server{
		Addr: serverConf.Address,
		Handler: server.NewHandler(logger, server.Options{
			Runner:          p.Runner,
			Store:           p.Store,
			DefaultStrategy: conf.Optimizer.Strategy,
			MaxRequestSize:  serverConf.RequestSizeBytes(),
			Version:         version,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "main"),
			zap.String("address", serverConf.Address),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error",
				zap.String("op", "main"),
				zap.Error(err),
			)
			return
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return
	}
	logger.Info("server stopped", zap.String("op", "main"))
}
