package cache

import (
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"tradecore/internal/errors"
	"tradecore/pkg/exception"
)

// ParseFunc builds a value from its canonical string key.
type ParseFunc[T any] func(key string) (T, error)

// ObjectCache interns values parsed from string keys. Each distinct key is parsed at
// most once and every lookup of that key returns the same pointer until Clear.
//
// ObjectCache is safe for concurrent use. Concurrent misses on the same key share a
// single parse; misses on different keys do not wait on each other.
type ObjectCache[T any] struct {
	parse ParseFunc[T]

	mu     sync.RWMutex
	values map[string]*T
	keys   []string
	group  singleflight.Group
}

// New creates an empty cache using parse to build missing values.
func New[T any](parse func(key string) (T, error)) *ObjectCache[T] {
	return &ObjectCache[T]{
		parse:  parse,
		values: make(map[string]*T),
	}
}

// Get returns the interned value for key, parsing and storing it on first use.
// Parse failures are returned and nothing is stored.
func (c *ObjectCache[T]) Get(key string) (*T, error) {
	if len(strings.TrimSpace(key)) == 0 {
		return nil, errors.Wrapf(exception.ErrValueFormat, "cache key %q is empty", key)
	}

	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}

		parsed, err := c.parse(key)
		if err != nil {
			return nil, errors.Wrapf(err, "parse cache key %q", key)
		}

		v := &parsed
		c.mu.Lock()
		if existing, ok := c.values[key]; ok {
			v = existing
		} else {
			c.values[key] = v
			c.keys = append(c.keys, key)
		}
		c.mu.Unlock()

		return v, nil
	})
	if err != nil {
		return nil, err
	}

	return res.(*T), nil
}

// GetAny is Get for loosely typed keys. Non-string keys fail with
// exception.ErrTypeConstraint.
func (c *ObjectCache[T]) GetAny(key any) (*T, error) {
	switch k := key.(type) {
	case string:
		return c.Get(k)
	case nil:
		return nil, errors.Wrap(exception.ErrTypeConstraint, "cache key is missing")
	default:
		return nil, errors.Wrapf(exception.ErrTypeConstraint, "cache key has type %T, want string", key)
	}
}

// Keys returns the populated keys in insertion order.
func (c *ObjectCache[T]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, len(c.keys))
	copy(keys, c.keys)
	return keys
}

func (c *ObjectCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.keys)
}

// Clear drops every entry. Later lookups construct new values.
func (c *ObjectCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values = make(map[string]*T)
	c.keys = nil
}

func (c *ObjectCache[T]) lookup(key string) (*T, bool) {
	c.mu.RLock()
	v, ok := c.values[key]
	c.mu.RUnlock()
	return v, ok
}
