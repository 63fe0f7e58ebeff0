package backend

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

type mmappedFile struct {
	file *os.File
	mmap mmap.MMap
	mu   sync.RWMutex
	size int64
}

func newMmappedFile(size int64, filePath string) (*mmappedFile, error) {
	f, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	err = fallocate(size, f)
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("error preallocating file: %w", err)
	}

	err = f.Truncate(size)
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("error allocating file: %w", err)
	}

	mm, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("error mapping file: %w", err)
	}

	return &mmappedFile{
		mmap: mm,
		file: f,
		size: int64(len(mm)),
	}, nil
}

func (m *mmappedFile) ReadAt(b []byte, off int64) (int, error) {
	length := int64(len(b))
	if length+off > m.size {
		length = m.size - off
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return copy(b, m.mmap[off:off+length]), nil
}

func (m *mmappedFile) WriteAt(b []byte, off int64) (int, error) {
	length := int64(len(b))
	if length+off > m.size {
		length = m.size - off
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return copy(m.mmap[off:off+length], b), nil
}

func (m *mmappedFile) Sync() error {
	return m.mmap.Flush()
}

func (m *mmappedFile) Close() error {
	flushErr := m.mmap.Flush()

	mmapErr := m.mmap.Unmap()
	closeErr := m.file.Close()

	return errors.Join(flushErr, mmapErr, closeErr)
}
