package concept

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/all-of-us/surveyprep/internal/hierarchy"
)

// DefaultCacheSize is used when a non-positive size is given.
const DefaultCacheSize = 512

// CachedResolver memoises topic lookups, including misses. Lookup errors are
// not cached.
type CachedResolver struct {
	next  hierarchy.TopicResolver
	cache *lru.Cache[string, string]
}

// NewCachedResolver wraps next with an LRU of size entries.
func NewCachedResolver(next hierarchy.TopicResolver, size int) (*CachedResolver, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("topic cache: %w", err)
	}
	return &CachedResolver{next: next, cache: cache}, nil
}

func (c *CachedResolver) ResolveTopicCode(ctx context.Context, survey, header string) (string, error) {
	if code, ok := c.cache.Get(header); ok {
		return code, nil
	}
	code, err := c.next.ResolveTopicCode(ctx, survey, header)
	if err != nil {
		return "", err
	}
	c.cache.Add(header, code)
	return code, nil
}

// Len is the number of cached headers.
func (c *CachedResolver) Len() int { return c.cache.Len() }
