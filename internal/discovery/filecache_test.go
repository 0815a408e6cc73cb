package discovery

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileCachePutGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovery.json")
	cache := NewFileCache(path, nil)

	entry := CacheEntry{
		RootID:     "3293",
		UpdatedAt:  time.Now().UTC(),
		EpisodeIDs: []string{"101", "102", "103"},
	}
	if err := cache.Put(entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := cache.Get("3293")
	if !ok {
		t.Fatal("entry not found after Put")
	}
	if len(got.EpisodeIDs) != 3 || got.EpisodeIDs[0] != "101" {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestFileCacheSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovery.json")

	first := NewFileCache(path, nil)
	if err := first.Put(CacheEntry{RootID: "1", EpisodeIDs: []string{"a"}}); err != nil {
		t.Fatal(err)
	}

	second := NewFileCache(path, nil)
	got, ok := second.Get("1")
	if !ok || len(got.EpisodeIDs) != 1 || got.EpisodeIDs[0] != "a" {
		t.Fatalf("entry lost across reload: %+v ok=%v", got, ok)
	}
}

func TestFileCacheIsHumanReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovery.json")
	cache := NewFileCache(path, nil)
	if err := cache.Put(CacheEntry{RootID: "3293", EpisodeIDs: []string{"101"}}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"root_id": "3293"`) {
		t.Fatalf("cache file should be readable JSON, got: %s", data)
	}
}

func TestFileCacheCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovery.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	cache := NewFileCache(path, nil)
	if _, ok := cache.Get("anything"); ok {
		t.Fatal("corrupt cache should behave as empty")
	}
	// And it must still accept writes afterwards.
	if err := cache.Put(CacheEntry{RootID: "1", EpisodeIDs: []string{"a"}}); err != nil {
		t.Fatalf("Put after corrupt load failed: %v", err)
	}
}

func TestFileCacheClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovery.json")
	cache := NewFileCache(path, nil)
	if err := cache.Put(CacheEntry{RootID: "1", EpisodeIDs: []string{"a"}}); err != nil {
		t.Fatal(err)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := cache.Get("1"); ok {
		t.Fatal("entry survived Clear")
	}
	if got := cache.List(); len(got) != 0 {
		t.Fatalf("List after Clear: %v", got)
	}
}

func TestFileCacheRejectsEmptyRootID(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "discovery.json"), nil)
	if err := cache.Put(CacheEntry{RootID: "  "}); err == nil {
		t.Fatal("expected error for empty root identifier")
	}
}
