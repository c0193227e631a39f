package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Local stores blobs as files in a single directory.
type Local struct {
	fs  afero.Fs
	dir string
}

// NewLocal creates a directory-backed store rooted at dir, creating the
// directory if needed.
func NewLocal(dir string) (*Local, error) {
	fs := afero.NewOsFs()
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &Local{fs: fs, dir: dir}, nil
}

// NewLocalFs is like NewLocal but over a caller-supplied filesystem.
func NewLocalFs(fs afero.Fs, dir string) (*Local, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &Local{fs: fs, dir: dir}, nil
}

func (l *Local) path(key string) string {
	return filepath.Join(l.dir, SanitizeFilename(key))
}

// Put writes the blob contents under key, replacing any previous blob.
func (l *Local) Put(ctx context.Context, key string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := l.fs.Create(l.path(key))
	if err != nil {
		return fmt.Errorf("create blob file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = l.fs.Remove(l.path(key))
		return fmt.Errorf("write blob file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close blob file: %w", err)
	}
	return nil
}

// Get opens the blob for streaming. The caller closes the reader.
func (l *Local) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := l.fs.Open(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open blob file: %w", err)
	}
	return f, nil
}

// Delete removes the blob. A missing key is not an error.
func (l *Local) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := l.fs.Remove(l.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob file: %w", err)
	}
	return nil
}
