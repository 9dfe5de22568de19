// Package store persists conversation snapshots. Drivers live in
// subpackages; drivers take opaque bytes so the memory package stays the
// only owner of the snapshot format.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no snapshot exists under the requested key.
var ErrNotFound = errors.New("store: snapshot not found")

// ErrNoStore is returned when snapshot persistence was never configured.
var ErrNoStore = errors.New("store: no snapshot store configured")

// Store saves and loads conversation snapshots by key.
type Store interface {
	Save(ctx context.Context, key string, data []byte) error
	// Load returns ErrNotFound when nothing is stored under key.
	Load(ctx context.Context, key string) ([]byte, error)
	Close() error
}
