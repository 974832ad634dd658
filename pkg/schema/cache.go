package schema

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of distinct specifications kept.
const DefaultCacheSize = 128

// Cache memoizes successful parses so a job's schema is computed once and the
// same *TableSchema is shared by every consumer. Failed parses are not cached.
type Cache struct {
	entries *lru.Cache[string, *TableSchema]
}

// NewCache creates a cache holding up to size schemas.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, *TableSchema](size)
	if err != nil {
		// lru.New only fails for non-positive sizes
		panic(err)
	}
	return &Cache{entries: entries}
}

// Parse returns the cached schema for (table, raw) or parses and stores it.
func (c *Cache) Parse(table, raw string) (*TableSchema, error) {
	key := table + "\x00" + raw
	if s, ok := c.entries.Get(key); ok {
		return s, nil
	}
	s, err := ParseNamed(table, raw)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, s)
	return s, nil
}

// Len returns the number of cached schemas.
func (c *Cache) Len() int {
	return c.entries.Len()
}
