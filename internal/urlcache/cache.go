// Package urlcache maps short opaque ids to full video URLs so inline button
// payloads, which Telegram caps at 64 bytes, can reference arbitrarily long
// links. Entries are bounded by an LRU with a TTL, so the cache can never
// grow without limit; a pressed button whose entry has aged out simply
// misses and the user is asked to resend the link.
package urlcache

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is safe for concurrent use.
type Cache struct {
	lru *expirable.LRU[string, string]
}

// New builds a cache holding at most size entries, each living at most ttl.
func New(size int, ttl time.Duration) *Cache {
	return &Cache{
		lru: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

// Put stores the URL and returns its short id. The id is a pure function of
// the URL, so storing the same link twice refreshes the entry instead of
// minting a second id.
func (c *Cache) Put(url string) string {
	id := ShortID(url)
	c.lru.Add(id, url)
	return id
}

// Get resolves a short id back to its URL. The second result is false when
// the entry was never stored, was evicted, or has expired.
func (c *Cache) Get(id string) (string, bool) {
	return c.lru.Get(id)
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// ShortID derives the 16-character hex id for a URL.
func ShortID(url string) string {
	h := fnv.New64a()
	h.Write([]byte(url))
	return fmt.Sprintf("%016x", h.Sum64())
}
