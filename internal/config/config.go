package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultDBPath              = "circle_memories.db"
	DefaultLogLevel            = "info"
	DefaultConfidenceThreshold = 40.0
	DefaultMaxPerMemory        = 3
	DefaultMaxYearDistance     = 5
	DefaultTemporalWeight      = 40.0
	DefaultNamesWeight         = 30.0
	DefaultKeywordsWeight      = 20.0
	DefaultVisualWeight        = 10.0
)

// Config holds the application configuration after defaults, file values,
// and environment overrides are merged.
type Config struct {
	DBPath   string
	LogLevel string
	LogFile  string

	ConfidenceThreshold float64
	MaxPerMemory        int
	MaxYearDistance     int
	Parallelism         int

	TemporalWeight float64
	NamesWeight    float64
	KeywordsWeight float64
	VisualWeight   float64

	// KnownNames are always recognized by the feature extractor regardless
	// of casing or sentence position.
	KnownNames []string

	MetricsEnabled bool
}

type fileConfig struct {
	Database struct {
		Path string `toml:"path"`
	} `toml:"database"`
	Logging struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"logging"`
	Match struct {
		ConfidenceThreshold float64 `toml:"confidence_threshold"`
		MaxPerMemory        int     `toml:"max_per_memory"`
		MaxYearDistance     int     `toml:"max_year_distance"`
		Parallelism         int     `toml:"parallelism"`
		TemporalWeight      float64 `toml:"temporal_weight"`
		NamesWeight         float64 `toml:"names_weight"`
		KeywordsWeight      float64 `toml:"keywords_weight"`
		VisualWeight        float64 `toml:"visual_weight"`
	} `toml:"match"`
	Names struct {
		Known []string `toml:"known"`
	} `toml:"names"`
	Metrics struct {
		Enabled *bool `toml:"enabled"`
	} `toml:"metrics"`
}

// Load builds the configuration. path may be empty, in which case the
// PHOTOMATCH_CONFIG environment variable is consulted, then a local
// photomatch.toml. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("PHOTOMATCH_CONFIG")
	}
	if path == "" {
		if _, err := os.Stat("photomatch.toml"); err == nil {
			path = "photomatch.toml"
		}
	}

	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		DBPath:              DefaultDBPath,
		LogLevel:            DefaultLogLevel,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MaxPerMemory:        DefaultMaxPerMemory,
		MaxYearDistance:     DefaultMaxYearDistance,
		TemporalWeight:      DefaultTemporalWeight,
		NamesWeight:         DefaultNamesWeight,
		KeywordsWeight:      DefaultKeywordsWeight,
		VisualWeight:        DefaultVisualWeight,
		MetricsEnabled:      true,
	}
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s not found", path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Database.Path != "" {
		cfg.DBPath = fc.Database.Path
	}
	if fc.Logging.Level != "" {
		cfg.LogLevel = fc.Logging.Level
	}
	if fc.Logging.File != "" {
		cfg.LogFile = fc.Logging.File
	}
	if fc.Match.ConfidenceThreshold != 0 {
		cfg.ConfidenceThreshold = fc.Match.ConfidenceThreshold
	}
	if fc.Match.MaxPerMemory != 0 {
		cfg.MaxPerMemory = fc.Match.MaxPerMemory
	}
	if fc.Match.MaxYearDistance != 0 {
		cfg.MaxYearDistance = fc.Match.MaxYearDistance
	}
	if fc.Match.Parallelism != 0 {
		cfg.Parallelism = fc.Match.Parallelism
	}
	if fc.Match.TemporalWeight != 0 {
		cfg.TemporalWeight = fc.Match.TemporalWeight
	}
	if fc.Match.NamesWeight != 0 {
		cfg.NamesWeight = fc.Match.NamesWeight
	}
	if fc.Match.KeywordsWeight != 0 {
		cfg.KeywordsWeight = fc.Match.KeywordsWeight
	}
	if fc.Match.VisualWeight != 0 {
		cfg.VisualWeight = fc.Match.VisualWeight
	}
	if len(fc.Names.Known) > 0 {
		cfg.KnownNames = fc.Names.Known
	}
	if fc.Metrics.Enabled != nil {
		cfg.MetricsEnabled = *fc.Metrics.Enabled
	}

	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		// Compatibility with the album app's variable.
		cfg.DBPath = v
	}
	if v := os.Getenv("PHOTOMATCH_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PHOTOMATCH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PHOTOMATCH_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("PHOTOMATCH_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Parallelism = n
		}
	}
}

// Validate rejects configurations the matcher would refuse anyway, so the
// failure surfaces at startup instead of mid-batch.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 100 {
		return fmt.Errorf("confidence threshold must be in [0, 100], got %g", c.ConfidenceThreshold)
	}
	if c.MaxPerMemory <= 0 {
		return fmt.Errorf("max_per_memory must be positive, got %d", c.MaxPerMemory)
	}
	if c.MaxYearDistance <= 0 {
		return fmt.Errorf("max_year_distance must be positive, got %d", c.MaxYearDistance)
	}
	return nil
}
