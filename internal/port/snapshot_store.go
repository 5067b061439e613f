package port

import "context"

type SnapshotStore interface {
	// Read returns the value stored under key; ok is false when the key is absent
	Read(ctx context.Context, key string) (value string, ok bool, err error)

	// Write overwrites the value stored under key
	Write(ctx context.Context, key, value string) error

	// Ping reports whether the backing store is reachable
	Ping(ctx context.Context) error
}
