// Package main is the entry point of the parameter gateway.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vyrodovalexey/paramgw/internal/config"
	"github.com/vyrodovalexey/paramgw/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags(os.Args[1:])

	if flags.showVersion {
		printVersion()
		return
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting paramgw",
		observability.String("version", version),
		observability.String("config", flags.configPath),
		observability.String("template_source", cfg.Templates.Source),
	)

	app, err := newApplication(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", observability.Error(err))
	}

	if err := run(app, logger); err != nil {
		logger.Fatal("paramgw stopped with error", observability.Error(err))
	}
}

// parseFlags parses command line flags with environment defaults.
func parseFlags(args []string) cliFlags {
	fs := flag.NewFlagSet("paramgw", flag.ExitOnError)
	configPath := fs.String("config", envOr("CONFIG_PATH", "configs/paramgw.yaml"),
		"Path to configuration file")
	logLevel := fs.String("log-level", envOr("LOG_LEVEL", ""),
		"Log level (debug, info, warn, error); overrides the configuration file")
	logFormat := fs.String("log-format", envOr("LOG_FORMAT", ""),
		"Log format (json, console); overrides the configuration file")
	showVersion := fs.Bool("version", false, "Show version information")
	_ = fs.Parse(args)

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// envPrefix namespaces the environment variables read by the binary.
const envPrefix = "PARAMGW_"

// envOr returns $PARAMGW_<name> when set and non-empty, otherwise fallback.
func envOr(name, fallback string) string {
	if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
		return v
	}
	return fallback
}

func printVersion() {
	fmt.Printf("paramgw version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// loadConfig loads and validates the configuration and applies flag
// overrides.
func loadConfig(flags cliFlags) (*config.Config, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initLogger(cfg config.LoggingConfig) (observability.Logger, error) {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: cfg.Output,
	})
	if err != nil {
		return nil, err
	}

	observability.SetGlobalLogger(logger)
	return logger, nil
}
