package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Local stores each value in a fixed-size memory-mapped file under a
// directory, one file per key. Files are materialized lazily on first
// access and start out zero-filled, so unwritten ranges read as zeros.
//
// Every value has the same byte size, fixed at construction. The blob
// manager sizes it to one full blob.
type Local struct {
	dir       string
	valueSize int64

	files map[string]*mmappedFile
	mu    sync.Mutex
}

var _ Store = (*Local)(nil)

func NewLocal(dir string, valueSize int64) (*Local, error) {
	if valueSize <= 0 {
		return nil, fmt.Errorf("invalid value size %d", valueSize)
	}

	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	return &Local{
		dir:       dir,
		valueSize: valueSize,
		files:     make(map[string]*mmappedFile),
	}, nil
}

func (s *Local) WriteRange(_ context.Context, key string, off int64, p []byte) error {
	if off < 0 || off+int64(len(p)) > s.valueSize {
		return fmt.Errorf("range %d+%d is outside value of size %d", off, len(p), s.valueSize)
	}

	f, err := s.file(key)
	if err != nil {
		return err
	}

	_, err = f.WriteAt(p, off)
	if err != nil {
		return fmt.Errorf("failed to write range %d+%d of %q: %w", off, len(p), key, err)
	}

	return nil
}

func (s *Local) ReadRange(_ context.Context, key string, off int64, p []byte) (int, error) {
	if off < 0 || off >= s.valueSize {
		return 0, nil
	}

	s.mu.Lock()
	f, ok := s.files[key]
	s.mu.Unlock()

	if !ok {
		// Only look at the filesystem when the file is not mapped yet. A
		// key that was never written has no file and reads as absent.
		if _, statErr := os.Stat(s.path(key)); errors.Is(statErr, os.ErrNotExist) {
			return 0, nil
		}

		var err error
		f, err = s.file(key)
		if err != nil {
			return 0, err
		}
	}

	n, err := f.ReadAt(p, off)
	if err != nil {
		return 0, fmt.Errorf("failed to read range %d+%d of %q: %w", off, len(p), key, err)
	}

	return n, nil
}

// Sync flushes all mapped files to disk.
func (s *Local) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for key, f := range s.files {
		if err := f.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("failed to sync %q: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

func (s *Local) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for key, f := range s.files {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %q: %w", key, err))
		}
	}

	s.files = make(map[string]*mmappedFile)

	return errors.Join(errs...)
}

func (s *Local) file(key string) (*mmappedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.files[key]; ok {
		return f, nil
	}

	f, err := newMmappedFile(s.valueSize, s.path(key))
	if err != nil {
		return nil, fmt.Errorf("failed to map value file for %q: %w", key, err)
	}

	s.files[key] = f

	return f, nil
}

func (s *Local) path(key string) string {
	return filepath.Join(s.dir, key)
}
