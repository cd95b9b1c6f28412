// Package docstore persists whole JSON documents for the memory stores.
//
// Every backend stores one opaque document per name and replaces it in full on
// Save. Two processes writing the same name race and the later writer wins.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/researcher/config"
)

// ErrNotFound is returned by Load when no document has been saved yet.
var ErrNotFound = errors.New("docstore: document not found")

// Backend loads and saves a single named document.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	// Size returns the stored document size in bytes, 0 when absent.
	Size(ctx context.Context) (int64, error)
	// Location describes where the document lives, for logs and stats.
	Location() string
}

// Open builds the backend selected by cfg.Backend. name identifies the
// document for keyed backends and path is used by the file backend.
func Open(ctx context.Context, cfg config.StorageConfig, name, path string) (Backend, error) {
	switch cfg.Backend {
	case "", config.BackendFile:
		return NewFileBackend(path), nil
	case config.BackendRedis:
		return NewRedisBackend(ctx, cfg.Redis, name)
	case config.BackendPostgres:
		return NewPostgresBackend(ctx, cfg.Postgres, name)
	default:
		return nil, fmt.Errorf("docstore: unsupported backend %q", cfg.Backend)
	}
}

func timeoutOr(d time.Duration) time.Duration {
	if d <= 0 {
		return 5 * time.Second
	}
	return d
}
