package owid

import (
	"context"
	"sync"

	"github.com/vidanagua/marine-indicators-service/internal/domain"
)

// MetadataFetcher fetches a metadata document by resource path.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, path string) (domain.MetadataDocument, error)
}

// CachedMetadataFetcher wraps a MetadataFetcher with an in-memory LRU cache
// keyed by resource path. Metadata rarely changes between loads of the same
// dataset, so repeated load triggers skip the extra round trip.
type CachedMetadataFetcher struct {
	inner MetadataFetcher
	cache *lruCache
}

// NewCachedMetadataFetcher creates a cache decorator around a fetcher.
func NewCachedMetadataFetcher(inner MetadataFetcher, maxEntries int) *CachedMetadataFetcher {
	return &CachedMetadataFetcher{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

func (c *CachedMetadataFetcher) FetchMetadata(ctx context.Context, path string) (domain.MetadataDocument, error) {
	if doc, ok := c.cache.get(path); ok {
		return doc, nil
	}
	doc, err := c.inner.FetchMetadata(ctx, path)
	if err != nil {
		return doc, err
	}
	// Only cache non-empty documents so a transiently empty response can be
	// retried on the next load.
	if doc.Subtitle != "" || doc.Citation != "" {
		c.cache.put(path, doc)
	}
	return doc, nil
}

// lruCache is a simple thread-safe LRU cache for metadata documents.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.MetadataDocument
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.MetadataDocument, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.MetadataDocument{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.MetadataDocument) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
