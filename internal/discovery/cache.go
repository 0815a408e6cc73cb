package discovery

import "time"

// CacheEntry is the persisted discovery result for one root identifier.
// Entries never expire by time; a series with newly added episodes is only
// rediscovered when the cache is explicitly bypassed.
type CacheEntry struct {
	RootID     string    `json:"root_id"`
	UpdatedAt  time.Time `json:"updated_at"`
	EpisodeIDs []string  `json:"episode_ids"`
}

// Cache is the collaborator the cascade reads before and writes after
// discovery. Implementations may be file-backed, in-memory, or external.
type Cache interface {
	Get(rootID string) (CacheEntry, bool)
	Put(entry CacheEntry) error
}

// MemoryCache is a map-backed Cache for tests and cache-less runs that still
// want within-process reuse.
type MemoryCache struct {
	entries map[string]CacheEntry
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]CacheEntry)}
}

func (m *MemoryCache) Get(rootID string) (CacheEntry, bool) {
	entry, ok := m.entries[rootID]
	return entry, ok
}

func (m *MemoryCache) Put(entry CacheEntry) error {
	m.entries[entry.RootID] = entry
	return nil
}
