package types

import (
	"fmt"
	"time"
)

// ConversionConfig holds settings for the unit conversion stage.
type ConversionConfig struct {
	// Unit is the target unit name: Hundred, Thousand, Lakhs, or Crore.
	Unit string `json:"unit" yaml:"unit" mapstructure:"unit"`

	// Threshold is the magnitude at or below which values are left alone (default 20).
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`

	// Workers bounds the cell worker pool. Zero means runtime.NumCPU().
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// SampleRows is how many leading rows the annotator inspects (default 10, 0 = all).
	SampleRows int `json:"sample_rows" yaml:"sample_rows" mapstructure:"sample_rows"`

	// ProgressEvery is the cell interval between progress events (default 200).
	ProgressEvery int `json:"progress_every" yaml:"progress_every" mapstructure:"progress_every"`

	// OutDir is the directory converted workbooks are written to.
	OutDir string `json:"out_dir" yaml:"out_dir" mapstructure:"out_dir"`
}

// ClassifierConfig holds settings for the optional language-model fallback
// used when no number can be found by pattern matching.
type ClassifierConfig struct {
	// Enabled allows the fallback; it only runs when an API key is found.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Model is the AI model identifier (e.g. "claude-3-5-haiku-latest").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the API endpoint; empty uses the public one.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Timeout bounds a single classification call (default 20s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries is the number of retries on transient failure (default 1).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// CacheSize bounds the in-memory answer cache (default 4096).
	CacheSize int `json:"cache_size" yaml:"cache_size" mapstructure:"cache_size"`
}

// StoreConfig holds settings for the run history database.
type StoreConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" yaml:"path" mapstructure:"path"`
}

// LoggingConfig holds settings for structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json or console.
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// OutputFile, when set, receives log output instead of stderr.
	OutputFile string `json:"output_file,omitempty" yaml:"output_file,omitempty" mapstructure:"output_file"`
}

// Config groups all settings for the converter.
type Config struct {
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier" mapstructure:"classifier"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// Defaults for Config.
const (
	DefaultUnit          = "Lakhs"
	DefaultThreshold     = 20.0
	DefaultSampleRows    = 10
	DefaultProgressEvery = 200
	DefaultOutDir        = "converted"
	DefaultModel         = "claude-3-5-haiku-latest"
	DefaultTimeout       = 20 * time.Second
	DefaultCacheSize     = 4096
	DefaultStorePath     = ".unit-converter/runs.db"
)

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{
		Conversion: ConversionConfig{
			Unit:          DefaultUnit,
			Threshold:     DefaultThreshold,
			SampleRows:    DefaultSampleRows,
			ProgressEvery: DefaultProgressEvery,
			OutDir:        DefaultOutDir,
		},
		Classifier: ClassifierConfig{
			Enabled:    true,
			Model:      DefaultModel,
			Timeout:    DefaultTimeout,
			MaxRetries: 1,
			CacheSize:  DefaultCacheSize,
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    DefaultStorePath,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the settings that would otherwise fail deep inside a run.
func (c Config) Validate() error {
	if _, err := ParseUnit(c.Conversion.Unit); err != nil {
		return err
	}
	if c.Conversion.Threshold < 0 {
		return fmt.Errorf("threshold must not be negative: %v", c.Conversion.Threshold)
	}
	if c.Conversion.Workers < 0 {
		return fmt.Errorf("workers must not be negative: %d", c.Conversion.Workers)
	}
	if c.Conversion.SampleRows < 0 {
		return fmt.Errorf("sample_rows must not be negative: %d", c.Conversion.SampleRows)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	return nil
}
