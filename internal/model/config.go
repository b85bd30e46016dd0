package model

import "time"

// Config holds all carescope configuration.
type Config struct {
	Reference   ReferenceConfig   `yaml:"reference" mapstructure:"reference"`
	Geocode     GeocodeConfig     `yaml:"geocode" mapstructure:"geocode"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Run         RunConfig         `yaml:"run" mapstructure:"run"`
}

// ReferenceConfig points at an optional reference-table override file.
type ReferenceConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // Empty uses the built-in tables
}

// GeocodeConfig configures the geocoding collaborator.
type GeocodeConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
	RateLimit  float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // Requests per second per host
	Proxy      string        `yaml:"proxy" mapstructure:"proxy"`
}

// CacheConfig configures the geocode cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend string        `yaml:"backend" mapstructure:"backend"` // disk | sqlite
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LLMConfig configures narrative summaries.
type LLMConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Provider  string        `yaml:"provider" mapstructure:"provider"` // openai | gemini | ollama
	Model     string        `yaml:"model" mapstructure:"model"`
	APIKey    string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RateLimit float64       `yaml:"rate_limit" mapstructure:"rate_limit"`
	Proxy     string        `yaml:"proxy" mapstructure:"proxy"`
}

// OutputConfig controls where results go.
type OutputConfig struct {
	Dir          string   `yaml:"dir" mapstructure:"dir"`
	File         string   `yaml:"file" mapstructure:"file"`
	Markdown     bool     `yaml:"markdown" mapstructure:"markdown"`
	ExcerptLimit int      `yaml:"excerpt_limit" mapstructure:"excerpt_limit"`
	DataSource   string   `yaml:"data_source" mapstructure:"data_source"`
	MetricsFile  string   `yaml:"metrics_file" mapstructure:"metrics_file"`
	S3           S3Config `yaml:"s3" mapstructure:"s3"`
}

// S3Config configures the optional collection upload.
type S3Config struct {
	Enabled      bool   `yaml:"enabled" mapstructure:"enabled"`
	Bucket       string `yaml:"bucket" mapstructure:"bucket"`
	Prefix       string `yaml:"prefix" mapstructure:"prefix"`
	Region       string `yaml:"region" mapstructure:"region"`
	Endpoint     string `yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style" mapstructure:"use_path_style"`
}

// ConcurrencyConfig sizes the worker pool.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RunConfig bounds a whole run.
type RunConfig struct {
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Geocode: GeocodeConfig{
			Enabled:    false,
			BaseURL:    "https://nominatim.openstreetmap.org",
			UserAgent:  "carescope/0.3 (+https://github.com/ppiankov/carescope)",
			Timeout:    10 * time.Second,
			MaxRetries: 3,
			RateLimit:  1.0,
		},
		Cache: CacheConfig{
			Enabled: true,
			Backend: "disk",
			Dir:     "~/.carescope/cache",
			TTL:     30 * 24 * time.Hour,
		},
		LLM: LLMConfig{
			Enabled:   false,
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			MaxTokens: 800,
			Timeout:   30 * time.Second,
			RateLimit: 2.0,
		},
		Output: OutputConfig{
			Dir:          "./carescope-output",
			File:         "analysis.json",
			Markdown:     false,
			ExcerptLimit: 160,
			DataSource:   "Virtue Foundation Ghana v0.3",
			S3: S3Config{
				Prefix: "carescope/",
				Region: "us-east-1",
			},
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Run: RunConfig{
			Timeout: 10 * time.Minute,
		},
	}
}
