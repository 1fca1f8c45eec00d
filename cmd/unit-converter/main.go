// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the unit-converter CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/unit-converter/internal/logging"
	"github.com/pdiddy/unit-converter/internal/secrets"
	"github.com/pdiddy/unit-converter/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds the keys read from .secrets/ at startup.
	loadedSecrets secrets.Keys

	// logger is built from configuration before any subcommand runs.
	logger = zap.NewNop()
)

// rootCmd is the base command for the unit-converter CLI.
var rootCmd = &cobra.Command{
	Use:   "unit-converter",
	Short: "Rescale financial statements to Hundred, Thousand, Lakhs, or Crore",
	Long: `unit-converter reads spreadsheet (.xlsx, .xlsm, .xls) and PDF financial
statements, divides every monetary figure by the chosen unit, and writes a
workbook with the converted values and a "(in <Unit>)" label row on every
sheet. Dates, years, identifiers, phone numbers, and formulas are left alone.

Use convert to process documents, classify to preview how individual cell
texts are treated, and history to review past runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		keys, skipped, err := secrets.Load(secrets.DefaultDir)
		if err != nil {
			return err
		}
		loadedSecrets = keys

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		levelOverride, _ := cmd.Flags().GetString("log-level")
		l, err := logging.New(cfg.Logging, levelOverride)
		if err != nil {
			return err
		}
		logger = l

		if len(keys) > 0 {
			logger.Debug("loaded secrets", zap.String("op", "main.PersistentPreRunE"), zap.Strings("keys", keys.Names()))
		}
		for _, name := range skipped {
			logger.Warn("skipped unreadable secret", zap.String("op", "main.PersistentPreRunE"), zap.String("key", name))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./unit-converter.yaml or ~/.config/unit-converter/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides config)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("unit-converter")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "unit-converter"))
		}
	}

	setDefaults(types.DefaultConfig())

	viper.SetEnvPrefix("UNIT_CONVERTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so environment variables can override
// values that appear in no config file.
func setDefaults(cfg types.Config) {
	viper.SetDefault("conversion.unit", cfg.Conversion.Unit)
	viper.SetDefault("conversion.threshold", cfg.Conversion.Threshold)
	viper.SetDefault("conversion.workers", cfg.Conversion.Workers)
	viper.SetDefault("conversion.sample_rows", cfg.Conversion.SampleRows)
	viper.SetDefault("conversion.progress_every", cfg.Conversion.ProgressEvery)
	viper.SetDefault("conversion.out_dir", cfg.Conversion.OutDir)

	viper.SetDefault("classifier.enabled", cfg.Classifier.Enabled)
	viper.SetDefault("classifier.model", cfg.Classifier.Model)
	viper.SetDefault("classifier.api_key", cfg.Classifier.APIKey)
	viper.SetDefault("classifier.base_url", cfg.Classifier.BaseURL)
	viper.SetDefault("classifier.timeout", cfg.Classifier.Timeout)
	viper.SetDefault("classifier.max_retries", cfg.Classifier.MaxRetries)
	viper.SetDefault("classifier.cache_size", cfg.Classifier.CacheSize)

	viper.SetDefault("store.enabled", cfg.Store.Enabled)
	viper.SetDefault("store.path", cfg.Store.Path)

	viper.SetDefault("logging.level", cfg.Logging.Level)
	viper.SetDefault("logging.format", cfg.Logging.Format)
	viper.SetDefault("logging.output_file", cfg.Logging.OutputFile)
}

// loadConfig decodes the merged flag, environment, and file settings and
// fills in the classifier key from the environment or .secrets/.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Classifier.APIKey == "" {
		cfg.Classifier.APIKey = loadedSecrets.Lookup(secrets.AnthropicKey, secrets.AnthropicEnv)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
