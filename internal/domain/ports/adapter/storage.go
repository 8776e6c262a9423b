package adapter

import (
	"context"
	"io"
)

// FileStore persists product attachments under content-hashed keys.
type FileStore interface {
	// Put stores the content and returns the generated storage key.
	Put(ctx context.Context, originalName string, r io.Reader) (string, error)
	// Open returns a reader for the stored key plus the content length.
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Remove(ctx context.Context, key string) error
}
