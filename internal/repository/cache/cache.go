// Package cache provides the summary cache used by dashboard reads.
//
// The cache is an explicit component: TTL is injected at construction and
// invalidation is an explicit call keyed by entity type and id, so services
// decide exactly when derived data goes stale.
package cache

import (
	"context"
	"fmt"
)

// Cache defines the interface for TTL-based caching with prefix invalidation
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Key builds a cache key for an entity
func Key(entityType string, id int32, parts ...string) string {
	key := fmt.Sprintf("%s:%d", entityType, id)
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

// Prefix builds the invalidation prefix covering all keys for an entity.
// The trailing delimiter keeps "group:1" from matching "group:12" keys.
func Prefix(entityType string, id int32) string {
	return fmt.Sprintf("%s:%d:", entityType, id)
}
