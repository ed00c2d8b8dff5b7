// Package config holds runtime configuration shared by all commands.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jmylchreest/colorhunter/internal/colour"
)

// Environment variables read by WithEnvConfig.
const (
	EnvAlgorithm      = "COLORHUNTER_ALGORITHM"
	EnvSeed           = "COLORHUNTER_SEED"
	EnvMaxSamples     = "COLORHUNTER_MAX_SAMPLES"
	EnvListen         = "COLORHUNTER_LISTEN"
	EnvLogLevel       = "COLORHUNTER_LOG_LEVEL"
	EnvCacheDir       = "COLORHUNTER_CACHE_DIR"
	EnvMaxUploadBytes = "COLORHUNTER_MAX_UPLOAD_BYTES"
	EnvMaxPixels      = "COLORHUNTER_MAX_PIXELS"
)

// Defaults.
const (
	DefaultListen               = "127.0.0.1:8080"
	DefaultMaxUploadBytes int64 = 32 << 20
	DefaultMaxPixels      int64 = 50_000_000
)

// Config holds the settings used to build extractors, loaders and the server.
type Config struct {
	// Algorithm selects the clusterer.
	Algorithm colour.Algorithm

	// Seed makes kmeans extraction reproducible when set.
	Seed *int64

	// MaxSamples caps the clustered pixels. Zero clusters every pixel.
	MaxSamples int

	// Listen is the HTTP server address.
	Listen string

	// LogLevel overrides the verbosity flags when non-empty.
	LogLevel string

	// CacheDir enables the remote image cache when non-empty.
	CacheDir string

	// MaxUploadBytes bounds request bodies and remote downloads.
	MaxUploadBytes int64

	// MaxPixels rejects larger images before they are decoded. Zero disables it.
	MaxPixels int64
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Algorithm:      colour.AlgorithmKMeans,
		Listen:         DefaultListen,
		MaxUploadBytes: DefaultMaxUploadBytes,
		MaxPixels:      DefaultMaxPixels,
	}
}

// ExtractorOptions converts the configuration into extractor options.
func (c Config) ExtractorOptions() colour.ExtractorOptions {
	return colour.ExtractorOptions{
		Seed:       c.Seed,
		MaxSamples: c.MaxSamples,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if !colour.IsValidAlgorithm(c.Algorithm) {
		return fmt.Errorf("unknown algorithm: %s (valid algorithms: %v)", c.Algorithm, colour.ValidAlgorithms())
	}
	if c.MaxSamples < 0 {
		return fmt.Errorf("max samples must not be negative, got %d", c.MaxSamples)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.MaxPixels < 0 {
		return fmt.Errorf("max pixels must not be negative, got %d", c.MaxPixels)
	}
	if c.Listen == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	return nil
}

// Builder provides a fluent interface for constructing a Config.
type Builder struct {
	config Config
	useEnv bool
}

// NewBuilder creates a new Builder starting from Default.
func NewBuilder() *Builder {
	return &Builder{config: Default()}
}

// WithEnvConfig applies COLORHUNTER_* environment variables on Build.
func (b *Builder) WithEnvConfig() *Builder {
	b.useEnv = true
	return b
}

// Build returns the configuration. Malformed environment values are errors
// rather than being silently ignored.
func (b *Builder) Build() (Config, error) {
	config := b.config

	if b.useEnv {
		if err := applyEnv(&config); err != nil {
			return Config{}, err
		}
	}

	return config, nil
}

func applyEnv(config *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvAlgorithm)); v != "" {
		config.Algorithm = colour.Algorithm(strings.ToLower(v))
	}

	if v := strings.TrimSpace(os.Getenv(EnvSeed)); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvSeed, v, err)
		}
		config.Seed = &seed
	}

	if v := strings.TrimSpace(os.Getenv(EnvMaxSamples)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxSamples, v, err)
		}
		config.MaxSamples = n
	}

	if v := strings.TrimSpace(os.Getenv(EnvListen)); v != "" {
		config.Listen = v
	}

	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		config.LogLevel = v
	}

	if v := strings.TrimSpace(os.Getenv(EnvCacheDir)); v != "" {
		config.CacheDir = v
	}

	if v := strings.TrimSpace(os.Getenv(EnvMaxUploadBytes)); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxUploadBytes, v, err)
		}
		config.MaxUploadBytes = n
	}

	if v := strings.TrimSpace(os.Getenv(EnvMaxPixels)); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxPixels, v, err)
		}
		config.MaxPixels = n
	}

	return nil
}
