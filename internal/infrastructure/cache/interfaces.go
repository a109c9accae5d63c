package cache

import (
	"context"
	"time"
)

// Cache provides a generic caching interface with support for TTL
type Cache interface {
	// Get retrieves a value by key
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value with optional TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a key
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists
	Exists(ctx context.Context, key string) (bool, error)

	// GetJSON retrieves and unmarshals JSON data
	GetJSON(ctx context.Context, key string, dest interface{}) error

	// SetJSON marshals and stores JSON data
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Ping checks the connection
	Ping(ctx context.Context) error

	// Close closes the cache connection
	Close() error
}

// Key prefixes for consistent cache key naming
const (
	ReferenceKey = "moderation:reference:v1"
	AlertPrefix  = "moderation:alert:"
)

// Common TTL values
const (
	ReferenceTTL = 1 * time.Minute
	AlertTTL     = 7 * 24 * time.Hour
)

// ErrCacheKeyNotFound is returned when a cache key doesn't exist
type ErrCacheKeyNotFound struct {
	Key string
}

func (e ErrCacheKeyNotFound) Error() string {
	return "cache key not found: " + e.Key
}
