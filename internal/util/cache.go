package util

import (
	"container/list"
	"sync"
)

type (
	// LRUCache is a bounded cache that evicts the least recently used
	// entry once the limit is reached. Misses populate through a loader,
	// which runs outside the lock
	LRUCache[K comparable, T any] struct {
		mu      sync.Mutex
		entries map[K]*list.Element
		order   *list.List
		limit   int
	}

	// Loader produces the value for a key on a cache miss
	Loader[T any] func() (T, error)

	cacheEntry[K comparable, T any] struct {
		key   K
		value T
	}
)

// NewLRUCache creates a cache holding at most limit entries
func NewLRUCache[K comparable, T any](limit int) *LRUCache[K, T] {
	return &LRUCache[K, T]{
		entries: map[K]*list.Element{},
		order:   list.New(),
		limit:   limit,
	}
}

// Get returns the cached value for key, loading it on a miss. Loader
// errors are returned to the caller and nothing is cached
func (c *LRUCache[K, T]) Get(key K, load Loader[T]) (T, error) {
	c.mu.Lock()
	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		c.mu.Unlock()
		return elem.Value.(*cacheEntry[K, T]).value, nil
	}
	c.mu.Unlock()

	value, err := load()
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A concurrent load may have filled the entry first
	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*cacheEntry[K, T]).value, nil
	}

	elem := c.order.PushFront(&cacheEntry[K, T]{key: key, value: value})
	c.entries[key] = elem
	if c.order.Len() > c.limit {
		c.evictOldest()
	}
	return value, nil
}

// Remove drops the entry for key if present
func (c *LRUCache[K, T]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		c.order.Remove(elem)
		delete(c.entries, key)
	}
}

// Purge drops every cached entry
func (c *LRUCache[K, T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[K]*list.Element{}
	c.order.Init()
}

// Len returns the number of cached entries
func (c *LRUCache[K, T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRUCache[K, T]) evictOldest() {
	if back := c.order.Back(); back != nil {
		c.order.Remove(back)
		delete(c.entries, back.Value.(*cacheEntry[K, T]).key)
	}
}
