// Package main implements the zyango-host entry point: it loads the host
// configuration, composes a component host, and serves until interrupted.
// Components are registered by embedding this package's run loop in your
// own binary or by extending registerComponents below.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/zyanfx/zyango/config"
	"github.com/zyanfx/zyango/host"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "zyango-host"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Host failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if cliCfg.ShowVersion {
		fmt.Printf("%s %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printUsage()
		return nil
	}

	cfg, err := loadConfiguration(cliCfg)
	if err != nil {
		return err
	}
	if cliCfg.Validate {
		slog.Info("Configuration is valid", "path", cliCfg.ConfigPath)
		return nil
	}

	logger := config.NewLogger(cfg.Logging, os.Stdout).With("host", cfg.Host.Name)

	h, err := host.NewComponentHost(cfg, host.WithLogger(logger))
	if err != nil {
		return err
	}

	if err := registerComponents(h); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := h.Start(ctx); err != nil {
		return err
	}
	logger.Info("Host serving", "components", len(h.GetRegisteredComponents()))

	<-ctx.Done()
	logger.Info("Shutdown signal received")
	return h.Close()
}

// loadConfiguration reads the config file, falling back to defaults when
// no file was given.
func loadConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	if cliCfg.ConfigPath == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// registerComponents is the extension point for binaries embedding this
// run loop. The stock binary publishes nothing.
func registerComponents(_ *host.ComponentHost) error {
	return nil
}
