package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Asdmir786/HalalDL/internal/logx"
)

// ReleaseCacheTTL is how long a resolved download URL is reused.
const ReleaseCacheTTL = 1 * time.Hour

type releaseCacheEntry struct {
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetched_at"`
}

type releaseCacheFile struct {
	Entries map[string]releaseCacheEntry `json:"entries"`
}

// ReleaseCache persists dynamic release lookups as JSON. A missing or corrupt
// file behaves as an empty cache.
type ReleaseCache struct {
	mu   sync.Mutex
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewReleaseCache returns a cache stored at path.
func NewReleaseCache(path string) *ReleaseCache {
	return &ReleaseCache{path: path, ttl: ReleaseCacheTTL, now: time.Now}
}

// Get returns the cached URL for key if it has not expired.
func (c *ReleaseCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.load().Entries[key]
	if !ok || entry.URL == "" {
		return "", false
	}
	if c.now().Sub(entry.FetchedAt) > c.ttl {
		return "", false
	}
	return entry.URL, true
}

// Put records url under key. Write failures are logged and otherwise ignored.
func (c *ReleaseCache) Put(ctx context.Context, key, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rc := c.load()
	rc.Entries[key] = releaseCacheEntry{URL: url, FetchedAt: c.now()}
	if err := c.save(rc); err != nil {
		logx.FromContext(ctx).Warn("write release cache", "path", c.path, "err", err)
	}
}

func (c *ReleaseCache) load() releaseCacheFile {
	empty := releaseCacheFile{Entries: map[string]releaseCacheEntry{}}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return empty
	}
	var rc releaseCacheFile
	if err := json.Unmarshal(data, &rc); err != nil {
		return empty
	}
	if rc.Entries == nil {
		rc.Entries = map[string]releaseCacheEntry{}
	}
	return rc
}

func (c *ReleaseCache) save(rc releaseCacheFile) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}
