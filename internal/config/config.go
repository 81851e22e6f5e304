package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Port          int              `yaml:"port"`
	APIKey        string           `yaml:"api_key"`
	RateLimit     int              `yaml:"rate_limit"`
	RateWindow    time.Duration    `yaml:"rate_window"`
	LogLevel      string           `yaml:"log_level"`
	LogFormat     string           `yaml:"log_format"`
	Lexicon       LexiconConfig    `yaml:"lexicon"`
	StopwordsPath string           `yaml:"stopwords_path"`
	VectorsPath   string           `yaml:"vectors_path"`
	Datasets      []DatasetConfig  `yaml:"datasets"`
	Sample        SampleConfig     `yaml:"sample"`
	Augment       AugmentConfig    `yaml:"augment"`
	Preprocess    PreprocessConfig `yaml:"preprocess"`
}

// LexiconConfig selects the synonym source. Driver is "yaml", "sqlite" or
// "none".
type LexiconConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// DatasetConfig describes one named dataset. Path is a doublestar glob.
type DatasetConfig struct {
	Name       string `yaml:"name"`
	Format     string `yaml:"format"`
	Path       string `yaml:"path"`
	LabelField string `yaml:"label_field"`
	TextField  string `yaml:"text_field"`
}

type SampleConfig struct {
	PoolSize     int           `yaml:"pool_size"`
	Capacity     int           `yaml:"capacity"`
	BuildTimeout time.Duration `yaml:"build_timeout"`
}

type AugmentConfig struct {
	InsertionRounds      int     `yaml:"insertion_rounds"`
	DeletionProbability  float64 `yaml:"deletion_probability"`
	MaxInsertionAttempts int     `yaml:"max_insertion_attempts"`
}

type PreprocessConfig struct {
	PadLength int `yaml:"pad_length"`
}

func defaults() Config {
	return Config{
		Port:       8000,
		RateLimit:  10,
		RateWindow: time.Minute,
		LogLevel:   "info",
		LogFormat:  "text",
		Lexicon: LexiconConfig{
			Driver: "yaml",
			Path:   "data/synonyms.yaml",
		},
		Datasets: []DatasetConfig{
			{Name: "AG_NEWS", Format: "csv", Path: "data/ag_news/train*.csv"},
			{Name: "IMDB", Format: "jsonl", Path: "data/imdb/**/*.jsonl", LabelField: "label", TextField: "text"},
		},
		Sample: SampleConfig{
			PoolSize:     100,
			Capacity:     10,
			BuildTimeout: 30 * time.Second,
		},
		Augment: AugmentConfig{
			InsertionRounds:      1,
			DeletionProbability:  0.2,
			MaxInsertionAttempts: 10,
		},
		Preprocess: PreprocessConfig{PadLength: 10},
	}
}

// Load loads configuration from a YAML file (if path is non-empty), then
// applies TEXTLAB_* environment overrides, then validates the result.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("TEXTLAB_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid TEXTLAB_PORT %q: %w", v, err)
		}
		cfg.Port = p
	}
	if v := os.Getenv("TEXTLAB_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid TEXTLAB_RATE_LIMIT %q: %w", v, err)
		}
		cfg.RateLimit = n
	}
	if v := os.Getenv("TEXTLAB_SAMPLE_BUILD_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid TEXTLAB_SAMPLE_BUILD_TIMEOUT %q: %w", v, err)
		}
		cfg.Sample.BuildTimeout = d
	}

	strs := []struct {
		env string
		dst *string
	}{
		{"TEXTLAB_API_KEY", &cfg.APIKey},
		{"TEXTLAB_LOG_LEVEL", &cfg.LogLevel},
		{"TEXTLAB_LOG_FORMAT", &cfg.LogFormat},
		{"TEXTLAB_LEXICON_DRIVER", &cfg.Lexicon.Driver},
		{"TEXTLAB_LEXICON_PATH", &cfg.Lexicon.Path},
		{"TEXTLAB_STOPWORDS_PATH", &cfg.StopwordsPath},
		{"TEXTLAB_VECTORS_PATH", &cfg.VectorsPath},
	}
	for _, s := range strs {
		if v := os.Getenv(s.env); v != "" {
			*s.dst = v
		}
	}
	return nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Port < 1 || c.Port > 65535 {
		bad("port %d out of range", c.Port)
	}
	if c.RateLimit < 0 {
		bad("rate_limit must be >= 0")
	}
	if c.RateLimit > 0 && c.RateWindow <= 0 {
		bad("rate_window must be positive")
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		bad("log_format %q: want text or json", c.LogFormat)
	}

	switch c.Lexicon.Driver {
	case "none":
	case "yaml", "sqlite":
		if c.Lexicon.Path == "" {
			bad("lexicon.path is required for driver %q", c.Lexicon.Driver)
		}
	default:
		bad("lexicon.driver %q: want yaml, sqlite or none", c.Lexicon.Driver)
	}

	if len(c.Datasets) == 0 {
		bad("at least one dataset is required")
	}
	seen := make(map[string]bool, len(c.Datasets))
	for i, d := range c.Datasets {
		if d.Name == "" {
			bad("datasets[%d]: name is required", i)
			continue
		}
		if seen[d.Name] {
			bad("datasets[%d]: duplicate name %q", i, d.Name)
		}
		seen[d.Name] = true
		if d.Format != "csv" && d.Format != "jsonl" {
			bad("datasets[%d] %s: format %q: want csv or jsonl", i, d.Name, d.Format)
		}
		if d.Path == "" {
			bad("datasets[%d] %s: path is required", i, d.Name)
		}
	}

	if c.Sample.PoolSize <= 0 {
		bad("sample.pool_size must be positive")
	}
	if c.Sample.Capacity <= 0 {
		bad("sample.capacity must be positive")
	}
	if c.Sample.BuildTimeout <= 0 {
		bad("sample.build_timeout must be positive")
	}
	if c.Augment.InsertionRounds <= 0 {
		bad("augment.insertion_rounds must be positive")
	}
	if p := c.Augment.DeletionProbability; p < 0 || p > 1 {
		bad("augment.deletion_probability %v not in [0,1]", p)
	}
	if c.Augment.MaxInsertionAttempts <= 0 {
		bad("augment.max_insertion_attempts must be positive")
	}
	if c.Preprocess.PadLength <= 0 {
		bad("preprocess.pad_length must be positive")
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
