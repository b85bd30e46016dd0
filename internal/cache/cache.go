package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// GeoKey generates a cache key for a geocoding query. The address is hashed
// exactly as given apart from surrounding whitespace.
func GeoKey(address string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(address)))
	return "carescope:geo:v1:" + hex.EncodeToString(hash[:])
}

// Options selects and sizes a cache stack.
type Options struct {
	Backend   string // "disk" or "sqlite"
	Dir       string
	TTL       time.Duration
	MemoryTTL time.Duration
}

// Open builds a layered cache with a memory front and the configured
// persistent backend.
func Open(opts Options) (*LayeredCache, error) {
	memTTL := opts.MemoryTTL
	if memTTL == 0 {
		memTTL = time.Hour
	}
	memory := NewMemoryCache(memTTL, 10*time.Minute)

	switch opts.Backend {
	case "", "disk":
		return NewLayeredCache(memory, NewDiskCache(opts.Dir, opts.TTL)), nil
	case "sqlite":
		store, err := NewSQLiteCache(sqlitePath(opts.Dir), opts.TTL)
		if err != nil {
			return nil, err
		}
		return NewLayeredCache(memory, store), nil
	default:
		return nil, &UnknownBackendError{Backend: opts.Backend}
	}
}

// UnknownBackendError reports an unsupported cache backend name.
type UnknownBackendError struct {
	Backend string
}

func (e *UnknownBackendError) Error() string {
	return "unknown cache backend: " + e.Backend
}
