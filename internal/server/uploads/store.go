// Package uploads stages incoming recordings for the lifetime of a single
// request. A staged Resource is owned by exactly one request and must be
// released when that request finishes.
package uploads

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

// Resource is a staged upload.
type Resource interface {
	// Open returns a fresh reader over the content.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Location is a local path or URL that external tools can read.
	Location() string
	// Name is the client-supplied file name.
	Name() string
	// Release deletes the staged content. Only the first call does any
	// work; later calls return nil.
	Release(ctx context.Context) error
}

// Store stages uploads. size may be -1 when unknown.
type Store interface {
	Save(ctx context.Context, name string, size int64, r io.Reader) (Resource, error)
}

// extension returns a safe lower-case extension of the client file name,
// or "" if it has none or looks odd.
func extension(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
