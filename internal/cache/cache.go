package cache

import (
	"errors"
	"fmt"
	"time"
)

// Store defines the key-value API the rest of the application memoizes through.
// Keys are non-empty strings; values are opaque to the cache.
type Store interface {
	// Get returns the value and whether it was present and not expired.
	Get(key string) (any, bool)

	// Set stores the value for ttl. A negative ttl or empty key is rejected.
	Set(key string, value any, ttl time.Duration) error

	// SetDefault stores the value with the configured default TTL.
	SetDefault(key string, value any) error

	// Has reports whether a key is present and not expired.
	Has(key string) bool

	// Delete removes a key if present.
	Delete(key string) bool

	// Len returns the number of stored entries, including expired ones not yet purged.
	Len() int

	// Clear removes all entries and returns how many were removed.
	Clear() int

	// ClearExpired removes expired entries and returns how many were removed.
	ClearExpired() int
}

var (
	// ErrInvalidArgument is the parent of every caller-misuse error.
	ErrInvalidArgument = errors.New("cache: invalid argument")
	// ErrInvalidKey is returned when a write names an empty key.
	ErrInvalidKey      = fmt.Errorf("%w: key must be a non-empty string", ErrInvalidArgument)
	// ErrNegativeTTL is returned when a write asks for a ttl below zero.
	ErrNegativeTTL     = fmt.Errorf("%w: ttl must not be negative", ErrInvalidArgument)
)

const (
	// DefaultTTL applies to SetDefault and to Options without a DefaultTTL.
	DefaultTTL             = 5 * time.Minute
	// DefaultMaxEntries is the capacity used when Options.MaxEntries is not positive.
	DefaultMaxEntries      = 100
	// DefaultCleanupInterval throttles the sweep that Set runs over expired entries.
	DefaultCleanupInterval = 60 * time.Second
)

// Ensure Cache implements Store at compile time.
var _ Store = (*Cache)(nil)
