package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	ShowVersion     bool
	Validate        bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("OPSD_CONFIG", ""),
		"Path to configuration file (env: OPSD_CONFIG)")
	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("OPSD_CONFIG", ""),
		"Path to configuration file (env: OPSD_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("OPSD_LOG_LEVEL", ""),
		"Log level override: debug, info, warn, error (env: OPSD_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("OPSD_LOG_FORMAT", ""),
		"Log format override: json, text (env: OPSD_LOG_FORMAT)")

	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("OPSD_SHUTDOWN_TIMEOUT", 15*time.Second),
		"Graceful shutdown timeout (env: OPSD_SHUTDOWN_TIMEOUT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	flag.Parse()
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		fmt.Fprintf(os.Stderr, "invalid duration in %s: %s\n", key, v)
	}
	return fallback
}
