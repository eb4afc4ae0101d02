// Package storage persists buylist state as JSON blobs under named keys.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ramonehamilton/MTG-Buylist/internal/config"
)

// Keys under which buylist state is persisted.
const (
	KeyLists            = "mtgLists"
	KeyColumnVisibility = "mtgColumnVisibility"
	KeyImageCache       = "mtgImageCache"
	KeySchemaVersion    = "mtgSchemaVersion"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store is closed")

// Store is a key-value store of JSON-serializable values.
type Store interface {
	// Get decodes the value stored under key into target.
	// Returns false (and leaves target untouched) if the key is absent.
	Get(ctx context.Context, key string, target interface{}) (bool, error)

	// Set JSON-encodes value and stores it under key, replacing any previous value.
	Set(ctx context.Context, key string, value interface{}) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists all stored keys in lexical order.
	Keys(ctx context.Context) ([]string, error)

	Close() error
}

// OpenFromConfig opens the backend selected in cfg.
func OpenFromConfig(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil

	case config.BackendRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})

	case config.BackendSQLite, "":
		path, err := cfg.StoragePath()
		if err != nil {
			return nil, err
		}
		dbConfig := DefaultConfig(path)
		dbConfig.AutoMigrate = true
		db, err := Open(dbConfig)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(db), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
