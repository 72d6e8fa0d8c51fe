// Package files stores document bytes. Records and bytes are owned by
// different backends; the service keeps them consistent.
package files

import (
	"context"
	"io"
)

// FileStore is the binary content contract. Keys are document IDs.
type FileStore interface {
	Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
