package scraper

import (
	"sync"

	"github.com/ryanm101/romscraper/internal/metrics"
	"github.com/ryanm101/romscraper/internal/platform"
)

// CacheKey identifies the ROM a cached candidate was chosen for.
type CacheKey struct {
	SourceID string
	BaseName string
	Platform platform.Code
}

type cacheSlot struct {
	key       CacheKey
	candidate Candidate
}

// CandidateCache remembers the last chosen candidate per source so that one
// ROM is disambiguated once while all of its asset kinds are resolved. It
// holds a single slot per source; a lookup for any other ROM misses and
// clears that slot.
type CandidateCache struct {
	mu    sync.Mutex
	slots map[string]cacheSlot
}

// NewCandidateCache returns an empty cache.
func NewCandidateCache() *CandidateCache {
	return &CandidateCache{slots: make(map[string]cacheSlot)}
}

// Get returns the cached candidate only when all key parts match.
func (c *CandidateCache) Get(key CacheKey) (Candidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.slots[key.SourceID]
	if ok && slot.key == key {
		metrics.CandidateCache.WithLabelValues(key.SourceID, "hit").Inc()
		return slot.candidate, true
	}
	if ok {
		delete(c.slots, key.SourceID)
	}
	metrics.CandidateCache.WithLabelValues(key.SourceID, "miss").Inc()
	return Candidate{}, false
}

// Put replaces the slot for key.SourceID.
func (c *CandidateCache) Put(key CacheKey, cand Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[key.SourceID] = cacheSlot{key: key, candidate: cand}
}

// Len returns the number of occupied slots.
func (c *CandidateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}
