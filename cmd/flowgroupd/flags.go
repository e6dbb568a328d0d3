package main

import (
	"flag"
	"fmt"
	"os"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	NATSURL     string
	HTTPAddr    string
	LogLevel    string
	LogFormat   string
	ShowVersion bool
	Validate    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("FLOWGROUP_CONFIG", ""),
		"Path to defaults file, empty for built-in defaults (env: FLOWGROUP_CONFIG)")

	flag.StringVar(&cfg.NATSURL, "nats-url",
		getEnv("FLOWGROUP_NATS_URL", "nats://localhost:4222"),
		"NATS server URL (env: FLOWGROUP_NATS_URL)")

	flag.StringVar(&cfg.HTTPAddr, "http-addr",
		getEnv("FLOWGROUP_HTTP_ADDR", ":8080"),
		"Listen address for health and metrics endpoints (env: FLOWGROUP_HTTP_ADDR)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("FLOWGROUP_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: FLOWGROUP_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("FLOWGROUP_LOG_FORMAT", "json"),
		"Log format: json, text (env: FLOWGROUP_LOG_FORMAT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	flag.Parse()
	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
