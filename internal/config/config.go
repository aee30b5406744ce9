package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the retrieval engine
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Store     StoreConfig     `yaml:"store"`
	Search    SearchConfig    `yaml:"search"`
	Source    SourceConfig    `yaml:"source"`
	Indexing  IndexingConfig  `yaml:"indexing"`
}

// EmbeddingConfig selects and tunes the embedding provider
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai", "huggingface", "local", or "" for autodetect
	CacheSize int    `yaml:"cache_size"`
}

// StoreConfig selects the vector store backend
type StoreConfig struct {
	Backend string `yaml:"backend"` // "sqlite", "bolt", "postgres", or "memory"
	Path    string `yaml:"path"`    // File path for sqlite and bolt backends
	DSN     string `yaml:"dsn"`     // Connection string for the postgres backend
}

// SearchConfig tunes result filtering and the consumer-side selection band
type SearchConfig struct {
	Threshold float64 `yaml:"threshold"` // Strict minimum similarity for results
	Limit     int     `yaml:"limit"`     // Default maximum result count
	// AutoSelectBand is the strict minimum similarity for automatic
	// context selection. Results at or below it fall back to top-1.
	AutoSelectBand float64 `yaml:"auto_select_band"`
}

// SourceConfig points at the changelog source of record
type SourceConfig struct {
	DSN string `yaml:"dsn"` // Postgres connection string; empty means file-based only
}

// IndexingConfig tunes the bulk rebuild
type IndexingConfig struct {
	BatchSize  int      `yaml:"batch_size"`
	BatchDelay Duration `yaml:"batch_delay"`
}

// Duration wraps time.Duration so YAML can carry values like "250ms"
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:  "", // Autodetect from environment
			CacheSize: 1000,
		},
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    defaultStorePath(),
		},
		Search: SearchConfig{
			Threshold:      0.1,
			Limit:          3,
			AutoSelectBand: 0.2,
		},
		Indexing: IndexingConfig{
			BatchSize:  3,
			BatchDelay: Duration(100 * time.Millisecond),
		},
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "logvec.db"
	}
	return filepath.Join(home, ".logvec", "vectors.db")
}

// Load loads configuration from a YAML file, layered over defaults.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would misbehave at runtime
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "sqlite", "bolt", "postgres", "memory":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == "postgres" && c.Store.DSN == "" {
		return fmt.Errorf("postgres store backend requires a dsn")
	}
	if c.Search.Limit <= 0 {
		return fmt.Errorf("search limit must be positive, got %d", c.Search.Limit)
	}
	if c.Search.Threshold < -1 || c.Search.Threshold >= 1 {
		return fmt.Errorf("search threshold must be in [-1, 1), got %g", c.Search.Threshold)
	}
	if c.Indexing.BatchSize <= 0 {
		return fmt.Errorf("indexing batch size must be positive, got %d", c.Indexing.BatchSize)
	}
	return nil
}

// Save writes the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
