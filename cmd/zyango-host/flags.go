package main

import (
	"flag"
	"fmt"
	"os"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	Validate    bool
	ShowVersion bool
	ShowHelp    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("ZYANGO_CONFIG", ""),
		"Path to configuration file (env: ZYANGO_CONFIG)")

	flag.BoolVar(&cfg.Validate, "validate", false,
		"Validate the configuration and exit")

	flag.BoolVar(&cfg.ShowVersion, "version", false,
		"Print version and exit")

	flag.BoolVar(&cfg.ShowHelp, "help", false,
		"Print usage and exit")

	flag.Parse()
	return cfg
}

func printUsage() {
	fmt.Printf("Usage: %s [flags]\n\nFlags:\n", appName)
	flag.PrintDefaults()
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
