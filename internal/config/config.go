package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/epm-tools/mtd/internal/model"
)

// FileName is the default config file name in a working directory.
const FileName = "mtd.yaml"

// EnvPrefix prefixes environment overrides, e.g. MTD_OUTPUT_DIR.
const EnvPrefix = "MTD"

// Config represents the top-level mtd.yaml configuration.
type Config struct {
	InputDir  string        `yaml:"input_dir" mapstructure:"input_dir"`
	OutputDir string        `yaml:"output_dir" mapstructure:"output_dir"`
	LogDir    string        `yaml:"log_dir" mapstructure:"log_dir"`
	Currency  string        `yaml:"currency" mapstructure:"currency"`
	Archive   bool          `yaml:"archive" mapstructure:"archive"`
	Extract   ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Logging   LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// ExtractConfig controls how monthly workbooks are read.
type ExtractConfig struct {
	HeaderRow  int `yaml:"header_row" mapstructure:"header_row"`   // zero-based
	SampleRows int `yaml:"sample_rows" mapstructure:"sample_rows"` // rows sampled when picking the data sheet
	Workers    int `yaml:"workers" mapstructure:"workers"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format     string `yaml:"format" mapstructure:"format"` // json, console
	OutputFile string `yaml:"output_file,omitempty" mapstructure:"output_file"`
}

// Load reads a config file, applying MTD_* environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return decode(v)
}

// LoadOrDefault is Load, falling back to defaults plus environment overrides
// when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return decode(newViper())
	}
	return Load(path)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("input_dir", d.InputDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("log_dir", d.LogDir)
	v.SetDefault("currency", d.Currency)
	v.SetDefault("archive", d.Archive)
	v.SetDefault("extract.header_row", d.Extract.HeaderRow)
	v.SetDefault("extract.sample_rows", d.Extract.SampleRows)
	v.SetDefault("extract.workers", d.Extract.Workers)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_file", d.Logging.OutputFile)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late in a run.
func (c *Config) Validate() error {
	var errs []string
	if _, err := model.ParseCurrencyMode(c.Currency); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Extract.HeaderRow < 0 {
		errs = append(errs, fmt.Sprintf("extract.header_row must be >= 0, got %d", c.Extract.HeaderRow))
	}
	if c.Extract.SampleRows < 1 {
		errs = append(errs, fmt.Sprintf("extract.sample_rows must be >= 1, got %d", c.Extract.SampleRows))
	}
	if c.Extract.Workers < 1 {
		errs = append(errs, fmt.Sprintf("extract.workers must be >= 1, got %d", c.Extract.Workers))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// CurrencyMode returns the parsed currency mode.
func (c *Config) CurrencyMode() model.CurrencyMode {
	m, err := model.ParseCurrencyMode(c.Currency)
	if err != nil {
		return model.CurrencyLCCAndEUR
	}
	return m
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new working directory.
func Default() *Config {
	return &Config{
		InputDir:  "import",
		OutputDir: "exports",
		LogDir:    "logs",
		Currency:  string(model.CurrencyLCCAndEUR),
		Extract: ExtractConfig{
			HeaderRow:  4,
			SampleRows: 500,
			Workers:    4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
