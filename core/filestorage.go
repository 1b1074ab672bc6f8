package core

import (
	"context"
	"errors"
	"io"
)

// ErrFileNotFound is returned by FileStorage implementations when a key does not exist.
var ErrFileNotFound = errors.New("file not found")

// FileStorage is any service that can store file blobs under opaque keys.
type FileStorage interface {
	Save(ctx context.Context, key string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
