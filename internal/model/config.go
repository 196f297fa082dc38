package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete hanprep configuration
type Config struct {
	Models      ModelsConfig      `yaml:"models" mapstructure:"models"`
	Filter      FilterConfig      `yaml:"filter" mapstructure:"filter"`
	Remote      RemoteConfig      `yaml:"remote" mapstructure:"remote"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// ModelsConfig locates the annotation models and picks the toolkit backend
type ModelsConfig struct {
	Dir        string        `yaml:"dir" mapstructure:"dir"`                 // Directory holding cws.model, pos.model, ...
	Backend    string        `yaml:"backend" mapstructure:"backend"`         // gse or remote
	KeepLoaded bool          `yaml:"keep_loaded" mapstructure:"keep_loaded"` // Reuse model handles across calls
	TTL        time.Duration `yaml:"ttl" mapstructure:"ttl"`                 // Idle time before a kept handle is released
}

// FilterConfig selects the cleaning steps applied by the clean pipeline
type FilterConfig struct {
	Normalize      bool   `yaml:"normalize" mapstructure:"normalize"`
	SpecialSymbols bool   `yaml:"special_symbols" mapstructure:"special_symbols"`
	EnglishWords   bool   `yaml:"english_words" mapstructure:"english_words"`
	Digits         bool   `yaml:"digits" mapstructure:"digits"`
	Punctuation    bool   `yaml:"punctuation" mapstructure:"punctuation"`
	SimpleOnly     bool   `yaml:"simple_only" mapstructure:"simple_only"`
	Dedupe         bool   `yaml:"dedupe" mapstructure:"dedupe"`
	MinLen         int    `yaml:"min_len" mapstructure:"min_len"`
	MaxLen         int    `yaml:"max_len" mapstructure:"max_len"`
	Stopwords      string `yaml:"stopwords,omitempty" mapstructure:"stopwords"` // Optional stopword file for annotate
}

// RemoteConfig configures the HTTP toolkit backend
type RemoteConfig struct {
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig configures the remote response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls the file-cleaning worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LogConfig controls logrus output
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "hanprep-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".hanprep", "cache")
	}

	return &Config{
		Models: ModelsConfig{
			Dir:     "./ltp_data",
			Backend: "gse",
			TTL:     10 * time.Minute,
		},
		Filter: FilterConfig{
			SpecialSymbols: true,
			Punctuation:    false,
			SimpleOnly:     true,
			Dedupe:         true,
			MinLen:         5,
			MaxLen:         50,
		},
		Remote: RemoteConfig{
			BaseURL:           "http://127.0.0.1:12345",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 20,
			BurstSize:         10,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
