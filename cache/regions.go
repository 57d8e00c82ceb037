// Package cache holds the named result-cache regions the cacheable and
// cache-region query hints toggle. It is deliberately small: regions
// exist so the cache hints have something observable to act on, not as
// general caching infrastructure.
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Row is one cached result row, keyed by column name.
type Row map[string]any

// Region is one named LRU result region.
type Region struct {
	name    string
	entries *lru.Cache[uint64, []Row]
}

// Name returns the region name.
func (r *Region) Name() string {
	return r.name
}

// Get returns the cached result set for a statement fingerprint.
func (r *Region) Get(key uint64) ([]Row, bool) {
	return r.entries.Get(key)
}

// Put stores a result set under a statement fingerprint.
func (r *Region) Put(key uint64, rows []Row) {
	r.entries.Add(key, rows)
}

// Evict drops every entry in the region.
func (r *Region) Evict() {
	r.entries.Purge()
}

// Len returns the number of cached result sets.
func (r *Region) Len() int {
	return r.entries.Len()
}

// RegionManager hands out named regions, creating them on first use.
type RegionManager struct {
	mu       sync.RWMutex
	regions  map[string]*Region
	capacity int
}

// NewRegionManager creates a manager whose regions each hold up to
// capacity result sets.
func NewRegionManager(capacity int) *RegionManager {
	if capacity <= 0 {
		capacity = 128
	}
	return &RegionManager{
		regions:  make(map[string]*Region),
		capacity: capacity,
	}
}

// Region returns the named region, creating it on first use.
func (m *RegionManager) Region(name string) *Region {
	// Fast path: existing region under read lock
	m.mu.RLock()
	if r, ok := m.regions[name]; ok {
		m.mu.RUnlock()
		return r
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if r, ok := m.regions[name]; ok {
		return r
	}

	entries, _ := lru.New[uint64, []Row](m.capacity)
	r := &Region{name: name, entries: entries}
	m.regions[name] = r
	return r
}

// EvictAll drops every entry in every region.
func (m *RegionManager) EvictAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.regions {
		r.Evict()
	}
}
