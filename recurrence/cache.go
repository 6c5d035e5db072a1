package recurrence

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheConfig holds configuration for the expansion cache
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`         // How long entries stay valid
	MaxEntries int           `yaml:"max_entries"` // LRU capacity
}

// DefaultCacheConfig provides sensible defaults for expansion caching
var DefaultCacheConfig = CacheConfig{
	TTL:        15 * time.Minute,
	MaxEntries: 1000,
}

// ExpansionCache memoizes successful expansions keyed on (anchor, rule, window).
// Expansion is deterministic, so a hit is always identical to recomputing.
type ExpansionCache struct {
	entries *expirable.LRU[string, []Occurrence]
	hits    atomic.Int64
	misses  atomic.Int64
}

// CacheStats provides information about cache performance
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// NewExpansionCache creates a new expansion cache with the given configuration.
// The LRU is always bounded: a non-positive MaxEntries falls back to
// DefaultCacheConfig.MaxEntries.
func NewExpansionCache(config CacheConfig) *ExpansionCache {
	if config.MaxEntries < 1 {
		config.MaxEntries = DefaultCacheConfig.MaxEntries
	}
	return &ExpansionCache{
		entries: expirable.NewLRU[string, []Occurrence](config.MaxEntries, nil, config.TTL),
	}
}

// cacheKey hashes every input that influences an expansion
func cacheKey(anchor Anchor, rule Rule, window Window) string {
	hasher := sha256.New()

	hasher.Write([]byte(anchor.Date.Format(time.RFC3339Nano)))
	hasher.Write([]byte(anchor.Date.Location().String()))
	if tod, ok := anchor.Time.Get(); ok {
		hasher.Write([]byte(tod.String()))
	} else {
		hasher.Write([]byte("untimed"))
	}

	var buf [8]byte
	for _, v := range []int{int(rule.Pattern), rule.Interval, int(rule.Days), int(rule.End.kind), rule.End.count, window.MaxCount} {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		hasher.Write(buf[:])
	}
	hasher.Write([]byte(rule.End.date.Format(time.RFC3339Nano)))
	hasher.Write([]byte(window.From.Format(time.RFC3339Nano)))
	hasher.Write([]byte(window.To.Format(time.RFC3339Nano)))

	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// Get returns a copy of a cached expansion
func (c *ExpansionCache) Get(anchor Anchor, rule Rule, window Window) ([]Occurrence, bool) {
	occurrences, ok := c.entries.Get(cacheKey(anchor, rule, window))
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return cloneOccurrences(occurrences), true
}

// Set stores a copy of an expansion
func (c *ExpansionCache) Set(anchor Anchor, rule Rule, window Window, occurrences []Occurrence) {
	c.entries.Add(cacheKey(anchor, rule, window), cloneOccurrences(occurrences))
}

// Purge drops every entry
func (c *ExpansionCache) Purge() {
	c.entries.Purge()
}

// Stats returns cache statistics
func (c *ExpansionCache) Stats() CacheStats {
	return CacheStats{
		Entries: c.entries.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

func cloneOccurrences(occurrences []Occurrence) []Occurrence {
	out := make([]Occurrence, len(occurrences))
	copy(out, occurrences)
	return out
}
