package store

import (
	"context"
	"errors"
	"time"
)

// Well-known keys.
const (
	KeyTasks = "tasks"
	KeyTheme = "theme"
)

// ErrKeyNotFound is returned by Get when no value is stored under the key.
var ErrKeyNotFound = errors.New("key not found")

// Store defines the durable key-value slot the application persists to.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error

	// Lifecycle
	Close() error
}

// Timestamped is implemented by stores that record when each key was last
// written.
type Timestamped interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}
