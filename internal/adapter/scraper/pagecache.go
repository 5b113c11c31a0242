package scraper

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"

	"websearch/internal/domain"
)

var bucketPages = []byte("pages")

// PageCache persists crawled pages in a bbolt file so repeated
// queries against the same site do not re-fetch every URL. Entries
// expire after the configured TTL.
type PageCache struct {
	db  *bbolt.DB
	ttl time.Duration
}

type cachedPage struct {
	Page      domain.Page `json:"page"`
	Links     []string    `json:"links"`
	FetchedAt time.Time   `json:"fetchedAt"`
}

// OpenPageCache opens (or creates) the page cache at path.
func OpenPageCache(path string, ttl time.Duration) (*PageCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open page cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPages)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &PageCache{db: db, ttl: ttl}, nil
}

// Get returns the cached page and its outbound links for url, if
// present and not expired.
func (c *PageCache) Get(url string) (domain.Page, []string, bool) {
	var entry cachedPage
	found := false

	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketPages).Get([]byte(url))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return domain.Page{}, nil, false
	}
	if c.ttl > 0 && time.Since(entry.FetchedAt) > c.ttl {
		return domain.Page{}, nil, false
	}
	return entry.Page, entry.Links, true
}

// Put stores a fetched page. Failures degrade to a log line; the
// cache is an optimization, never a correctness requirement.
func (c *PageCache) Put(page domain.Page, links []string) {
	entry := cachedPage{Page: page, Links: links, FetchedAt: time.Now()}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("url", page.URL).Msg("failed to encode cached page")
		return
	}

	err = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPages).Put([]byte(page.URL), data)
	})
	if err != nil {
		log.Error().Err(err).Str("url", page.URL).Msg("failed to store cached page")
	}
}

// Prune removes expired entries.
func (c *PageCache) Prune() error {
	if c.ttl <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-c.ttl)

	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPages)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var entry cachedPage
			if err := json.Unmarshal(v, &entry); err != nil {
				stale = append(stale, append([]byte(nil), k...))
				return nil
			}
			if entry.FetchedAt.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Len returns the number of cached pages, expired ones included.
func (c *PageCache) Len() (int, error) {
	count := 0
	err := c.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketPages).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the backing file.
func (c *PageCache) Close() error {
	return c.db.Close()
}
