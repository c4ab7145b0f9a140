// Package cache provides a bounded in-memory cache of prediction results.
//
// Inference is deterministic over the immutable artifact, so identical
// candidate records always map to identical predictions; caching by the
// record's canonical key is therefore safe for the process lifetime.
package cache

import (
	"container/list"
	"context"
	"sync"

	"github.com/okian/entretien/internal/domain/model"
)

const defaultMaxSize = 10_000

// Cache stores predictions under canonical candidate keys.
type Cache interface {
	// Get returns the cached prediction for key, if any.
	Get(ctx context.Context, key string) (model.Prediction, bool)

	// Put stores a prediction under key, evicting the least recently
	// used entry when full.
	Put(ctx context.Context, key string, p model.Prediction)

	Size() int
}

type entry struct {
	key        string
	prediction model.Prediction
}

// lruCache implements Cache with a map over a recency-ordered list.
type lruCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	maxSize int
}

// Option applies a configuration option to the cache.
type Option func(*lruCache)

// WithMaxSize bounds the number of cached predictions.
func WithMaxSize(maxSize int) Option {
	return func(c *lruCache) {
		if maxSize > 0 {
			c.maxSize = maxSize
		}
	}
}

// New creates a bounded LRU cache.
func New(opts ...Option) Cache {
	c := &lruCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *lruCache) Get(_ context.Context, key string) (model.Prediction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return model.Prediction{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).prediction, true
}

func (c *lruCache) Put(_ context.Context, key string, p model.Prediction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*entry).prediction = p
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*entry).key)
		}
	}

	c.entries[key] = c.order.PushFront(&entry{key: key, prediction: p})
}

func (c *lruCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
