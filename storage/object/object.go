// Package object defines the contract over the binary object store. It
// carries no business logic; the ingestion and export pipelines own all
// policy around keys and lifecycles.
package object

import (
	"context"
	"io"
	"time"
)

// Entry is one element of a listing. A terminal listing failure is
// delivered in-band as the final entry with Err set; consumers must stop
// draining once they see it. Listings are finite and not restartable.
type Entry struct {
	Key  string
	Size int64
	Err  error
}

type Store interface {
	// Put writes size bytes from r at key with the given content type.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Get opens the object at key for streaming reads.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Fetch downloads the object at key to localPath, creating parent
	// directories as needed.
	Fetch(ctx context.Context, key string, localPath string) error

	// PresignGet returns a time-limited read URL for key. URLs are
	// generated fresh on every call and never cached.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Remove deletes the object at key. Removing a key that does not
	// exist is not an error.
	Remove(ctx context.Context, key string) error

	// List lazily enumerates all objects under prefix, recursively. The
	// channel is closed when the listing is exhausted or after an Err
	// entry has been delivered.
	List(ctx context.Context, prefix string) <-chan Entry
}
