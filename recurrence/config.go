package recurrence

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultIterationCeiling bounds the number of calculator calls per expansion
const DefaultIterationCeiling = 10000

// EngineConfig holds configuration options for the recurrence engine
type EngineConfig struct {
	// Hard limit on calculator calls in a single expansion, catch-up included
	IterationCeiling int `yaml:"iteration_ceiling"`

	// Cache configuration
	CacheEnabled bool        `yaml:"cache_enabled"`
	CacheConfig  CacheConfig `yaml:"cache"`
}

// DefaultEngineConfig provides sensible defaults for production use
var DefaultEngineConfig = EngineConfig{
	IterationCeiling: DefaultIterationCeiling,
	CacheEnabled:     true,
	CacheConfig:      DefaultCacheConfig,
}

// HighPerformanceConfig is optimized for hosts expanding many reminders repeatedly
var HighPerformanceConfig = EngineConfig{
	IterationCeiling: DefaultIterationCeiling,
	CacheEnabled:     true,
	CacheConfig: CacheConfig{
		TTL:        30 * time.Minute, // Longer cache TTL
		MaxEntries: 5000,             // More cache entries
	},
}

// LowMemoryConfig is optimized for memory-constrained environments
var LowMemoryConfig = EngineConfig{
	IterationCeiling: DefaultIterationCeiling,
	CacheEnabled:     true,
	CacheConfig: CacheConfig{
		TTL:        5 * time.Minute,
		MaxEntries: 100,
	},
}

// DisabledCacheConfig turns off caching entirely
var DisabledCacheConfig = EngineConfig{
	IterationCeiling: DefaultIterationCeiling,
	CacheEnabled:     false,
}

// Validate checks that the configuration can build an engine
func (c EngineConfig) Validate() error {
	if c.IterationCeiling < 1 {
		return fmt.Errorf("iteration_ceiling must be >= 1, got %d", c.IterationCeiling)
	}
	if c.CacheEnabled && c.CacheConfig.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be >= 1 when the cache is enabled, got %d", c.CacheConfig.MaxEntries)
	}
	return nil
}

// LoadEngineConfig decodes a YAML document over DefaultEngineConfig.
// An empty document yields the defaults.
func LoadEngineConfig(r io.Reader) (EngineConfig, error) {
	config := DefaultEngineConfig
	if err := yaml.NewDecoder(r).Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return EngineConfig{}, fmt.Errorf("failed to decode engine config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return EngineConfig{}, fmt.Errorf("invalid engine config: %w", err)
	}
	return config, nil
}

// NewEngineWithConfig creates a new recurrence engine with custom configuration.
// A non-positive iteration ceiling falls back to DefaultIterationCeiling, and an
// enabled cache without a size falls back to DefaultCacheConfig.MaxEntries.
func NewEngineWithConfig(config EngineConfig, opts ...EngineOption) *Engine {
	if config.IterationCeiling < 1 {
		config.IterationCeiling = DefaultIterationCeiling
	}
	if config.CacheEnabled && config.CacheConfig.MaxEntries < 1 {
		config.CacheConfig.MaxEntries = DefaultCacheConfig.MaxEntries
	}

	e := &Engine{
		config:      config,
		calc:        DefaultCalculator,
		fastForward: true,
		logger:      slog.Default(),
	}
	if config.CacheEnabled {
		e.cache = NewExpansionCache(config.CacheConfig)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the configuration the engine was built with
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Cache returns the engine's expansion cache, nil when caching is disabled
func (e *Engine) Cache() *ExpansionCache {
	return e.cache
}
