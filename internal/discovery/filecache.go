package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"showgrab/internal/logging"
)

// FileCache is a Cache persisted as a human-readable JSON file. The file is
// safe to delete at any time; deletion is equivalent to a full cache miss.
//
// Writes take a sibling flock so two runs persisting the same cache file do
// not interleave; the final rename keeps each write atomic on its own.
type FileCache struct {
	path   string
	logger *slog.Logger
	lock   *flock.Flock

	mu      sync.RWMutex
	entries map[string]CacheEntry
}

// NewFileCache loads (or lazily creates) the cache at path. A load failure
// is logged and treated as an empty cache rather than an error.
func NewFileCache(path string, logger *slog.Logger) *FileCache {
	logger = logging.NewComponentLogger(logger, "discovery-cache")

	c := &FileCache{
		path:    path,
		logger:  logger,
		lock:    flock.New(path + ".lock"),
		entries: make(map[string]CacheEntry),
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load discovery cache; starting empty",
			logging.Error(err),
			logging.String("path", path))
	}
	return c
}

// Get returns the cached entry for a root identifier if present.
func (c *FileCache) Get(rootID string) (CacheEntry, bool) {
	rootID = strings.TrimSpace(rootID)
	if rootID == "" {
		return CacheEntry{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[rootID]
	return entry, ok
}

// Put adds or replaces an entry and persists the cache to disk.
func (c *FileCache) Put(entry CacheEntry) error {
	entry.RootID = strings.TrimSpace(entry.RootID)
	if entry.RootID == "" {
		return errors.New("root identifier cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[entry.RootID] = entry
	if err := c.save(); err != nil {
		return fmt.Errorf("persist discovery cache: %w", err)
	}

	c.logger.Debug("cached discovery result",
		logging.String(logging.FieldRootID, entry.RootID),
		logging.Int("episode_count", len(entry.EpisodeIDs)))
	return nil
}

// List returns all entries sorted by update time, newest first.
func (c *FileCache) List() []CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]CacheEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
	return entries
}

// Clear removes every entry and persists the empty cache.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]CacheEntry)
	if err := c.save(); err != nil {
		return fmt.Errorf("persist discovery cache: %w", err)
	}
	return nil
}

func (c *FileCache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []CacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}

	c.entries = make(map[string]CacheEntry, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.RootID) != "" {
			c.entries[entry.RootID] = entry
		}
	}
	return nil
}

func (c *FileCache) save() error {
	entries := make([]CacheEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	// Deterministic output keeps the file diffable.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RootID < entries[j].RootID
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("acquire cache lock: %w", err)
	}
	defer func() { _ = c.lock.Unlock() }()

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
