package port

import (
	"context"
	"errors"
)

// ErrSnapshotNotFound is returned by Load when nothing was ever saved under key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore is the durable key/value slot holding the serialized gallery.
// Every Save overwrites the whole value; there is no partial update.
type SnapshotStore interface {
	// Load returns the bytes stored under key or ErrSnapshotNotFound
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the value stored under key
	Save(ctx context.Context, key string, data []byte) error

	// Ping checks that the backend is reachable (readiness)
	Ping(ctx context.Context) error

	// Close releases the backend connection
	Close() error
}
