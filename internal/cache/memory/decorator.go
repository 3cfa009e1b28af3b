// Package memory implements an optional in-process LRU decorator layered
// in front of any of the persistent cache stores, gated by
// config.MemoryCacheLayerEnabled.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// entry is one cached value with its eviction bookkeeping.
type entry struct {
	key     string
	value   any
	expiry  time.Time
	element *list.Element
}

// LRU is a thread-safe, size-bounded, TTL-bounded cache of arbitrary
// values keyed by string.
type LRU struct {
	mu       sync.Mutex
	items    map[string]*entry
	order    *list.List
	maxItems int
	ttl      time.Duration
}

// NewLRU builds an LRU bounded to maxItems entries, each expiring ttl
// after insertion.
func NewLRU(maxItems int, ttl time.Duration) *LRU {
	return &LRU{
		items:    make(map[string]*entry),
		order:    list.New(),
		maxItems: maxItems,
		ttl:      ttl,
	}
}

// Get returns the cached value for key, if present and unexpired.
func (l *LRU) Get(key string) (any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.items[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiry) {
		l.remove(e)
		return nil, false
	}
	l.order.MoveToFront(e.element)
	return e.value, true
}

// Set stores value under key, evicting the least-recently-used entry if
// the cache is at capacity.
func (l *LRU) Set(key string, value any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.items[key]; ok {
		l.remove(existing)
	}
	for l.order.Len() >= l.maxItems && l.order.Len() > 0 {
		oldest := l.order.Back()
		if oldest == nil {
			break
		}
		l.remove(oldest.Value.(*entry))
	}

	e := &entry{key: key, value: value, expiry: time.Now().Add(l.ttl)}
	e.element = l.order.PushFront(e)
	l.items[key] = e
}

// Invalidate drops key from the cache, if present.
func (l *LRU) Invalidate(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.items[key]; ok {
		l.remove(e)
	}
}

func (l *LRU) remove(e *entry) {
	l.order.Remove(e.element)
	delete(l.items, e.key)
}

// ItemStoreDecorator wraps any keyed store of T (the item, pair and
// exposure stores alike) with an LRU front layer.
// Gets on a force refresh or a miss fall through to the underlying store;
// successful Puts invalidate the decorated key so the next Get re-primes
// from the freshly written value.
type ItemStoreDecorator[T any] struct {
	lru      *LRU
	getUnderlying func(ctx context.Context, key string, forceRefresh bool) (*T, bool, error)
	putUnderlying func(ctx context.Context, value T) error
	keyOf         func(value T) string
}

// NewDecorator builds a generic decorator around any keyed store shape,
// parameterized by how to extract a cache key from a stored value.
func NewDecorator[T any](
	lru *LRU,
	getUnderlying func(ctx context.Context, key string, forceRefresh bool) (*T, bool, error),
	putUnderlying func(ctx context.Context, value T) error,
	keyOf func(value T) string,
) *ItemStoreDecorator[T] {
	return &ItemStoreDecorator[T]{lru: lru, getUnderlying: getUnderlying, putUnderlying: putUnderlying, keyOf: keyOf}
}

// Get consults the LRU first; on a miss or a forced refresh it falls
// through to the underlying store and re-primes the LRU on a hit.
func (d *ItemStoreDecorator[T]) Get(ctx context.Context, key string, forceRefresh bool) (*T, bool, error) {
	if !forceRefresh {
		if cached, ok := d.lru.Get(key); ok {
			v := cached.(T)
			return &v, true, nil
		}
	}

	v, hit, err := d.getUnderlying(ctx, key, forceRefresh)
	if err != nil || !hit {
		return v, hit, err
	}
	d.lru.Set(key, *v)
	return v, hit, nil
}

// Put writes through to the underlying store, then invalidates the LRU
// entry so a subsequent Get observes the new value rather than a stale
// one left over from before the write.
func (d *ItemStoreDecorator[T]) Put(ctx context.Context, value T) error {
	if err := d.putUnderlying(ctx, value); err != nil {
		return err
	}
	d.lru.Invalidate(d.keyOf(value))
	return nil
}
