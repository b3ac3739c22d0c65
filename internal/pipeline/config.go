package pipeline

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all configuration required for running a translation session.
type Config struct {
	// IO Paths
	InputPath    string `toml:"-"`
	OutputPath   string `toml:"-"`
	LogPath      string `toml:"log_path"`
	GlossaryPath string `toml:"glossary_path"`

	// API Configuration
	Provider string `toml:"provider"` // "gemini" or "openai"
	APIKey   string `toml:"-"`
	BaseURL  string `toml:"base_url"`
	Model    string `toml:"model"`

	// Sampling
	Temperature float64 `toml:"temperature"`
	TopP        float64 `toml:"top_p"`

	// Processing Parameters
	BatchSize   int  `toml:"batch_size"`
	ContextSize int  `toml:"context_size"`
	Concurrency int  `toml:"concurrency"`
	MaxRounds   int  `toml:"max_rounds"`
	Local       bool `toml:"local"` // local model: simplified prompt

	// Quality gates
	TextPreserve bool `toml:"text_preserve"` // protect placeholder spans

	// Glossary
	GlossaryEnabled     bool `toml:"glossary_enabled"`
	AutoGlossaryEnabled bool `toml:"auto_glossary_enabled"`

	// Languages
	SourceLang string `toml:"source_lang"`
	TargetLang string `toml:"target_lang"`

	// Overwrite output file without asking.
	Overwrite bool `toml:"-"`
}

const (
	MinConcurrency  = 1
	MaxConcurrency  = 20
	MaxBatchSize    = 64
	MaxContextSize  = 10
	DefaultRounds   = 3
	DefaultTemp     = 1.0
	DefaultProvider = "gemini"
)

// LoadFile overlays settings from a TOML config file onto c. A missing
// file is not an error.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Normalize applies safe bounds to config values and returns any adjustments.
func (c Config) Normalize() (Config, []string) {
	var notes []string
	if c.Concurrency < MinConcurrency {
		notes = append(notes, fmt.Sprintf("concurrency raised from %d to %d", c.Concurrency, MinConcurrency))
		c.Concurrency = MinConcurrency
	}
	if c.Concurrency > MaxConcurrency {
		notes = append(notes, fmt.Sprintf("concurrency clamped from %d to %d (max %d)", c.Concurrency, MaxConcurrency, MaxConcurrency))
		c.Concurrency = MaxConcurrency
	}
	if c.BatchSize > MaxBatchSize {
		notes = append(notes, fmt.Sprintf("batch-size clamped from %d to %d (max %d)", c.BatchSize, MaxBatchSize, MaxBatchSize))
		c.BatchSize = MaxBatchSize
	}
	if c.ContextSize > MaxContextSize {
		notes = append(notes, fmt.Sprintf("context-size clamped from %d to %d (max %d)", c.ContextSize, MaxContextSize, MaxContextSize))
		c.ContextSize = MaxContextSize
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = DefaultRounds
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemp
	}
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	return c, notes
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batchSize must be greater than 0, got %d", c.BatchSize)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be greater than 0, got %d", c.Concurrency)
	}
	if c.ContextSize < 0 {
		return fmt.Errorf("contextSize must be 0 or greater, got %d", c.ContextSize)
	}
	if c.Provider != "gemini" && c.Provider != "openai" {
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}
