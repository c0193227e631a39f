// Package blob stores composition files under opaque keys, backed either by
// a local directory or a remote object bucket.
package blob

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound signals that no blob exists under the requested key.
var ErrNotFound = errors.New("blob not found")

// Store is the capability set shared by all storage backends. Delete is
// idempotent: removing a missing key is not an error.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewKey derives a collision-free storage key from an uploaded filename by
// prepending a random prefix and stripping anything path-like.
func NewKey(filename string) string {
	return uuid.New().String() + "_" + SanitizeFilename(filename)
}

// SanitizeFilename reduces a client-supplied filename to a safe character
// set. Path separators and control characters never survive.
func SanitizeFilename(name string) string {
	// Keep only the last path element, whichever separator the client used.
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), ".")
	if out == "" {
		out = "file"
	}
	return out
}
