// Package cache provides a local, block-granular read cache for blob data.
//
// Each blob gets a fixed-size memory-mapped file plus a marker bitset that
// records which block slots hold known data. The marker is what separates
// "cached zeros" from "not cached": cache files start zero-filled, so the
// bytes alone cannot answer that question.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/drusskikh/blobmanager/pkg/backend"
	"github.com/drusskikh/blobmanager/pkg/block"
)

type Cache struct {
	files    *backend.Local
	geometry block.Geometry

	markers map[uint64]*block.Marker
	mu      sync.Mutex
}

func New(dir string, geometry block.Geometry) (*Cache, error) {
	files, err := backend.NewLocal(dir, geometry.BlobSize())
	if err != nil {
		return nil, fmt.Errorf("failed to create cache directory store: %w", err)
	}

	return &Cache{
		files:    files,
		geometry: geometry,
		markers:  make(map[uint64]*block.Marker),
	}, nil
}

// Get returns a copy of the cached payload for the block at loc, or false
// when the slot was never cached. Markers live in memory only, so a fresh
// Cache over a pre-existing directory starts cold and refills from the
// backing store.
func (c *Cache) Get(ctx context.Context, loc block.Location) ([]byte, bool) {
	if !c.marker(loc.Blob).IsMarked(loc.Slot) {
		return nil, false
	}

	data := make([]byte, c.geometry.BlockSize)

	_, err := c.files.ReadRange(ctx, c.key(loc.Blob), loc.Offset, data)
	if err != nil {
		return nil, false
	}

	return data, true
}

// Put stores a block payload at loc. The slot is marked only after the
// bytes are written, so a failed write leaves the slot a miss.
func (c *Cache) Put(ctx context.Context, loc block.Location, data []byte) error {
	err := c.files.WriteRange(ctx, c.key(loc.Blob), loc.Offset, data)
	if err != nil {
		return fmt.Errorf("failed to write cached block: %w", err)
	}

	c.marker(loc.Blob).Mark(loc.Slot)

	return nil
}

func (c *Cache) Close() error {
	return c.files.Close()
}

func (c *Cache) marker(blob uint64) *block.Marker {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.markers[blob]
	if !ok {
		m = block.NewMarker(uint(c.geometry.BlocksPerBlob))
		c.markers[blob] = m
	}

	return m
}

func (c *Cache) key(blob uint64) string {
	return strconv.FormatUint(blob, 10)
}
