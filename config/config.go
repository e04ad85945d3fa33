package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// DataDirName is the per-project directory holding the catalog.
const DataDirName = ".fuzzydex"

// Config holds all configuration for the fuzzydex tool.
type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Query   QueryConfig   `yaml:"query"`
	Import  ImportConfig  `yaml:"import"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// IndexConfig describes the dimensions of the multidimensional index.
type IndexConfig struct {
	ValidateFacts    bool              `yaml:"validate_facts"`
	DefaultTolerance int               `yaml:"default_tolerance"`
	Dimensions       []DimensionConfig `yaml:"dimensions"` // Empty = one scan dimension per record attribute
}

// DimensionConfig configures one fuzzy index.
type DimensionConfig struct {
	Name      string  `yaml:"name"`
	Kind      string  `yaml:"kind"`      // "scan" or "bucket"
	Weight    float64 `yaml:"weight"`    // 0 = 1.0
	Tolerance int     `yaml:"tolerance"` // 0 = index.default_tolerance
	Encoder   string  `yaml:"encoder"`   // bucket only: "stem", "fold", "identity"
}

// QueryConfig holds query defaults.
type QueryConfig struct {
	Mode      string  `yaml:"mode"` // "exact", "nearest", "ranked"
	Threshold float64 `yaml:"threshold"`
	TopK      int     `yaml:"top_k"`
}

// ImportConfig controls how fact files are discovered and decoded.
type ImportConfig struct {
	Includes       []string          `yaml:"includes"`
	Excludes       []string          `yaml:"excludes"`
	IDField        string            `yaml:"id_field"`
	Fields         map[string]string `yaml:"fields"` // dimension -> column, gjson path or YAML key
	AliasSeparator string            `yaml:"alias_separator"`
}

// CacheConfig holds query cache configuration.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	MaxSize int           `yaml:"max_size"`
	TTL     time.Duration `yaml:"ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

var (
	dimensionKinds = []string{"scan", "bucket"}
	encoders       = []string{"", "stem", "fold", "identity"}
	queryModes     = []string{"exact", "nearest", "ranked"}
	logLevels      = []string{"debug", "info", "warn", "error"}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			ValidateFacts:    true,
			DefaultTolerance: 6,
		},
		Query: QueryConfig{
			Mode:      "ranked",
			Threshold: 10,
			TopK:      10,
		},
		Import: ImportConfig{
			Includes:       []string{"**/*.csv", "**/*.json", "**/*.yaml", "**/*.yml"},
			Excludes:       []string{"**/.git/**", "**/node_modules/**", DataDirName + "/**", "fuzzydex.yaml"},
			IDField:        "id",
			AliasSeparator: "|",
		},
		Cache: CacheConfig{
			Enabled: true,
			MaxSize: 100,
			TTL:     5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Index.DefaultTolerance < 0 {
		return fmt.Errorf("index.default_tolerance must be >= 0, got %d", c.Index.DefaultTolerance)
	}
	seen := make(map[string]bool, len(c.Index.Dimensions))
	for i, d := range c.Index.Dimensions {
		if d.Name == "" {
			return fmt.Errorf("index.dimensions[%d]: name is required", i)
		}
		if seen[d.Name] {
			return fmt.Errorf("index.dimensions[%d]: duplicate dimension %q", i, d.Name)
		}
		seen[d.Name] = true
		if !slices.Contains(dimensionKinds, d.Kind) {
			return fmt.Errorf("index.dimensions[%d]: unknown kind %q", i, d.Kind)
		}
		if !slices.Contains(encoders, d.Encoder) {
			return fmt.Errorf("index.dimensions[%d]: unknown encoder %q", i, d.Encoder)
		}
		if d.Weight < 0 || d.Tolerance < 0 {
			return fmt.Errorf("index.dimensions[%d]: weight and tolerance must be >= 0", i)
		}
	}
	if !slices.Contains(queryModes, c.Query.Mode) {
		return fmt.Errorf("query.mode must be one of %v, got %q", queryModes, c.Query.Mode)
	}
	if c.Query.Threshold < 0 {
		return fmt.Errorf("query.threshold must be >= 0, got %v", c.Query.Threshold)
	}
	if c.Query.TopK <= 0 {
		return fmt.Errorf("query.top_k must be > 0, got %d", c.Query.TopK)
	}
	if c.Import.IDField == "" {
		return fmt.Errorf("import.id_field is required")
	}
	if !slices.Contains(logLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %v, got %q", logLevels, c.Logging.Level)
	}
	return nil
}

// Dimension returns the configuration of the named dimension, or a scan
// dimension with default settings when it is not configured.
func (c *Config) Dimension(name string) DimensionConfig {
	for _, d := range c.Index.Dimensions {
		if d.Name == name {
			return c.withDefaults(d)
		}
	}
	return c.withDefaults(DimensionConfig{Name: name, Kind: "scan"})
}

func (c *Config) withDefaults(d DimensionConfig) DimensionConfig {
	if d.Weight == 0 {
		d.Weight = 1.0
	}
	if d.Tolerance == 0 {
		d.Tolerance = c.Index.DefaultTolerance
	}
	if d.Kind == "bucket" && d.Encoder == "" {
		d.Encoder = "stem"
	}
	return d
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for fuzzydex.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "fuzzydex.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, DataDirName, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CatalogPath returns the path to the fact catalog database.
func CatalogPath(dir string) string {
	return filepath.Join(dir, DataDirName, "catalog.db")
}

// EnsureDataDir ensures the .fuzzydex directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, DataDirName), 0755)
}
