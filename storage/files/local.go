// Package files implements core.FileStorage backends.
package files

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/lazoapp/lazo/core"
)

type localStorage struct {
	fs afero.Fs
}

var _ core.FileStorage = (*localStorage)(nil)

// NewLocalStorage stores blobs under root on the OS filesystem.
func NewLocalStorage(root string) (*localStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating storage root")
	}
	return &localStorage{fs: afero.NewBasePathFs(afero.NewOsFs(), root)}, nil
}

// NewMemStorage keeps blobs in memory; used in tests.
func NewMemStorage() *localStorage {
	return &localStorage{fs: afero.NewMemMapFs()}
}

func (s *localStorage) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	f, err := s.fs.Create(key)
	if err != nil {
		return 0, errors.Wrap(err, "creating file")
	}
	defer func() { _ = f.Close() }()

	n, err := io.Copy(f, r)
	if err != nil {
		return 0, errors.Wrap(err, "writing file")
	}
	return n, nil
}

func (s *localStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := s.fs.Open(key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrFileNotFound
		}
		return nil, errors.Wrap(err, "opening file")
	}
	return f, nil
}

func (s *localStorage) Delete(ctx context.Context, key string) error {
	if err := s.fs.Remove(key); err != nil {
		if os.IsNotExist(err) {
			return core.ErrFileNotFound
		}
		return errors.Wrap(err, "removing file")
	}
	return nil
}
