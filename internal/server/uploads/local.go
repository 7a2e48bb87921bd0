package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/dmitrijs2005/voicegate/internal/filex"
	"github.com/google/uuid"
)

// LocalStore keeps uploads as files in a directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	abs, err := filex.EnsureDir(dir, 0o750)
	if err != nil {
		return nil, err
	}
	return &LocalStore{dir: abs}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Save(ctx context.Context, name string, size int64, r io.Reader) (Resource, error) {
	path := filepath.Join(s.dir, uuid.NewString()+extension(name))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_, _ = filex.RemoveIfExists(path)
		return nil, fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		_, _ = filex.RemoveIfExists(path)
		return nil, fmt.Errorf("close upload file: %w", err)
	}

	return &localResource{path: path, name: name}, nil
}

type localResource struct {
	path     string
	name     string
	released atomic.Bool
}

func (r *localResource) Open(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(r.path)
}

func (r *localResource) Location() string { return r.path }

func (r *localResource) Name() string { return r.name }

func (r *localResource) Release(ctx context.Context) error {
	if !r.released.CompareAndSwap(false, true) {
		return nil
	}
	if _, err := filex.RemoveIfExists(r.path); err != nil {
		return fmt.Errorf("remove %s: %w", r.path, err)
	}
	return nil
}
