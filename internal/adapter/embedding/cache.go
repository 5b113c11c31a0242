package embedding

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
	"unicode/utf16"

	"github.com/rs/zerolog/log"

	"websearch/internal/domain"
)

// retentionWindow is how long an unused cache entry survives a save.
const retentionWindow = 7 * 24 * time.Hour

// Cache is a content-hash-keyed store of previously computed
// embeddings. It persists to a single JSON file mapping
// string-encoded hash -> {embedding, lastUsed}; a missing or corrupt
// file simply means an empty cache. One Cache is built per process
// and injected into every component that needs it.
type Cache struct {
	mu      sync.Mutex
	entries map[int32]*cacheEntry

	// saveMu serializes saves: a save in flight makes the next save
	// wait rather than race the file.
	saveMu sync.Mutex
	path   string

	now func() time.Time
}

type cacheEntry struct {
	embedding domain.Embedding
	lastUsed  time.Time
}

type diskEntry struct {
	Embedding domain.Embedding `json:"embedding"`
	LastUsed  time.Time        `json:"lastUsed"`
}

// Open loads the cache persisted at path. Load failures are not
// errors: the cache starts empty and the condition is logged.
func Open(path string) *Cache {
	c := &Cache{
		entries: make(map[int32]*cacheEntry),
		path:    path,
		now:     time.Now,
	}
	c.load()
	return c
}

// stringHash is the 32-bit polynomial hash (h = h*31 + unit) over
// UTF-16 code units. Distinct texts may collide and then share a
// slot; the risk is accepted, and the key space stays compatible with
// caches written by earlier versions of this tool.
func stringHash(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(u)
	}
	return h
}

// Get returns the cached embedding for text, bumping its last-used
// time on a hit.
func (c *Cache) Get(text string) (domain.Embedding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[stringHash(text)]
	if !ok {
		return nil, false
	}
	entry.lastUsed = c.now()
	return entry.embedding, true
}

// Set inserts or overwrites the entry for text.
func (c *Cache) Set(text string, emb domain.Embedding) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[stringHash(text)] = &cacheEntry{embedding: emb, lastUsed: c.now()}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry and removes the cache file.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.entries = make(map[int32]*cacheEntry)
	c.mu.Unlock()

	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Save evicts entries unused for longer than the retention window and
// writes the remaining map back to the cache file. A write failure
// degrades to a log line; it never fails the enclosing query.
func (c *Cache) Save() {
	c.evict()

	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	disk := make(map[string]diskEntry, len(c.entries))
	for key, entry := range c.entries {
		disk[strconv.FormatInt(int64(key), 10)] = diskEntry{
			Embedding: entry.embedding,
			LastUsed:  entry.lastUsed,
		}
	}
	c.mu.Unlock()

	data, err := json.Marshal(disk)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode embeddings cache")
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		log.Error().Err(err).Str("path", c.path).Msg("failed to create cache directory")
		return
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		log.Error().Err(err).Str("path", c.path).Msg("failed to save embeddings cache")
		return
	}
	log.Debug().Int("entries", len(disk)).Str("path", c.path).Msg("embeddings cache saved")
}

func (c *Cache) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := 0
	for key, entry := range c.entries {
		if now.Sub(entry.lastUsed) > retentionWindow {
			delete(c.entries, key)
			evicted++
		}
	}
	if evicted > 0 {
		log.Debug().Int("evicted", evicted).Msg("evicted stale embeddings from cache")
	}
}

func (c *Cache) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		log.Info().Str("path", c.path).Msg("no embeddings cache on disk")
		return
	}

	var disk map[string]diskEntry
	if err := json.Unmarshal(data, &disk); err != nil {
		log.Warn().Err(err).Str("path", c.path).Msg("unreadable embeddings cache, starting empty")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range disk {
		hash, err := strconv.ParseInt(key, 10, 32)
		if err != nil {
			continue
		}
		c.entries[int32(hash)] = &cacheEntry{
			embedding: entry.Embedding,
			lastUsed:  entry.LastUsed,
		}
	}
}
