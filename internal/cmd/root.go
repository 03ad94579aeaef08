package cmd

import (
	"context"
	"os"

	"github.com/felixgeelhaar/blueprint/internal/config"
	"github.com/felixgeelhaar/blueprint/internal/log"
	"github.com/felixgeelhaar/blueprint/internal/ux"
	"github.com/felixgeelhaar/blueprint/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "blueprint",
	Short: "Autonomous multi-phase task execution",
	Long: `blueprint executes declarative task blueprints: ordered phases of shell
commands, file operations, AI tasks, and verification checks. Steps retry
within a bounded budget, each phase can gate on a verification check, and
every run can leave a JSON manifest for audit.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	rootConfigFile string
	rootLogLevel   string
	rootLogFormat  string
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command under ctx so in-flight work
// stops when the process is signalled
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigFile, "config", "", "config file (default discovers .blueprint/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&rootLogFormat, "log-format", "", "log format: json or text (overrides config)")
}

// loadConfig resolves engine configuration. An explicit --config file
// wins; otherwise the nearest discovered config.yaml is used, and when
// none exists defaults plus BLUEPRINT_* environment variables apply.
func loadConfig() (*config.Config, error) {
	if rootConfigFile != "" {
		return config.LoadFile(rootConfigFile)
	}

	if path, err := ux.DiscoverConfigFile("config.yaml"); err == nil {
		// Discovery returns the expected location even when the file
		// does not exist yet
		if _, statErr := os.Stat(path); statErr == nil {
			return config.LoadFile(path)
		}
	}

	return config.Load(".")
}

// setupLogging builds the operator logger from config, applies flag
// overrides, and installs it as the process default
func setupLogging(cfg *config.Config) *log.Logger {
	level := cfg.Log.Level
	if rootLogLevel != "" {
		level = rootLogLevel
	}
	format := cfg.Log.Format
	if rootLogFormat != "" {
		format = rootLogFormat
	}

	logger := log.New(log.Config{
		Level:          log.ParseLevel(level),
		Format:         log.ParseFormat(format),
		Output:         log.OutputStderr(),
		ServiceName:    "blueprint",
		ServiceVersion: version.Version,
	})
	log.SetDefaultLogger(logger)
	return logger
}
