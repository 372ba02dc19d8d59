package commands

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dyluth/quire/internal/config"
	"github.com/dyluth/quire/internal/logger"
	"github.com/dyluth/quire/internal/printer"
)

var (
	version string
	commit  string
	date    string
)

// Global flags
var (
	configPath   string
	namespace    string
	redisURL     string
	logJSON      bool
	logLevel     string
	verboseDebug bool
)

var (
	// settings is the validated configuration of the running command.
	settings *config.QuireConfig

	// fsys is where commands read local files and keep blobs.
	fsys afero.Fs = afero.NewOsFs()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quire",
	Short: "Quire - versioned, mergeable entity documents",
	Long: `Quire stores entities as typed, versioned attribute documents in Redis.

Every attribute value carries a version, and concurrent copies of an entity
converge when merged: the higher version wins, and equal versions are settled
by comparing values. Text attributes are kept per language.

Configuration is read from quire.yml (or --config) and QUIRE_* environment
variables; flags override both.`,
	Version:           version,
	PersistentPreRunE: loadSettings,
	// Prevent silent success when unknown flags are passed to root command
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	defer logger.Sync()
	err := rootCmd.Execute()
	if err != nil && !printer.IsReported(err) {
		printer.Error("Error", err.Error(), nil)
	}
	return err
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFile, "Path to quire.yml")
	rootCmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", "", "Document namespace (overrides config)")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis-url", "", "Redis URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVarP(&verboseDebug, "verbose", "v", false, "Shorthand for --log-level=debug")
}

// loadSettings resolves configuration for every subcommand and starts logging.
func loadSettings(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return printer.Error(
			"invalid configuration",
			err.Error(),
			[]string{fmt.Sprintf("Check %s and QUIRE_* environment variables", configPath)},
		)
	}

	flags := cmd.Flags()
	if flags.Changed("namespace") {
		cfg.Namespace = namespace
	}
	if flags.Changed("redis-url") {
		cfg.Redis.URL = redisURL
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON = logJSON
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if verboseDebug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return printer.Error("invalid configuration", err.Error(), nil)
	}

	if err := logger.Initialize(cfg.Log.JSON, cfg.Log.Level); err != nil {
		return err
	}
	settings = cfg
	logger.Logger.Debugw("configuration loaded",
		logger.FieldNamespace, cfg.Namespace,
		"redis_url", cfg.Redis.URL,
	)
	return nil
}
