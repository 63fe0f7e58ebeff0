package manager

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/drusskikh/blobmanager/pkg/backend"
	"github.com/drusskikh/blobmanager/pkg/block"
	"github.com/drusskikh/blobmanager/pkg/cache"
)

const defaultKeyPrefix = "blob:"

// KV implements Manager on top of a backend.Store. Each blob is kept under
// a key derived from the blob id, and block payloads are written and read
// as byte ranges inside that value.
//
// After Init the instance holds only immutable configuration, so a single
// KV is safe for concurrent use. Writes to distinct block ids never overlap
// in the store because the geometry maps them to disjoint byte ranges.
type KV struct {
	store backend.Store

	prefix   string
	cacheDir string

	readCache *cache.Cache
	fill      singleflight.Group

	geometry    block.Geometry
	initialized bool
	mu          sync.RWMutex
}

var _ Manager = (*KV)(nil)

func NewKV(store backend.Store, opts ...Option) *KV {
	m := &KV{
		store:  store,
		prefix: defaultKeyPrefix,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *KV) Init(blockSize uint64, blocksPerBlob uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A repeated Init fails the same way regardless of its arguments and
	// leaves the original configuration in effect.
	if m.initialized {
		return ErrAlreadyInitialized
	}

	geometry, err := block.NewGeometry(blockSize, blocksPerBlob)
	if err != nil {
		return err
	}

	if m.cacheDir != "" {
		readCache, err := cache.New(m.cacheDir, geometry)
		if err != nil {
			return fmt.Errorf("failed to create read cache: %w", err)
		}

		m.readCache = readCache
	}

	m.geometry = geometry
	m.initialized = true

	return nil
}

func (m *KV) PutBlock(ctx context.Context, blockID uint64, data []byte) error {
	geometry, readCache, err := m.config()
	if err != nil {
		return err
	}

	err = geometry.ValidatePayload(data)
	if err != nil {
		return err
	}

	loc := geometry.Locate(blockID)

	err = m.store.WriteRange(ctx, m.key(loc.Blob), loc.Offset, data)
	if err != nil {
		return &BackendError{Op: "range write", Err: err}
	}

	if readCache != nil {
		// The block is durable at this point. Updating the cache before
		// returning keeps reads through this instance consistent with the
		// write.
		err = readCache.Put(ctx, loc, data)
		if err != nil {
			return fmt.Errorf("block stored but read cache update failed: %w", err)
		}
	}

	return nil
}

func (m *KV) GetBlock(ctx context.Context, blockID uint64) ([]byte, error) {
	geometry, readCache, err := m.config()
	if err != nil {
		return nil, err
	}

	loc := geometry.Locate(blockID)

	if readCache == nil {
		return m.fetch(ctx, geometry, loc)
	}

	if data, ok := readCache.Get(ctx, loc); ok {
		return data, nil
	}

	// Deduplicate concurrent fills of the same block so one miss storm
	// results in a single backing store read.
	v, err, shared := m.fill.Do(strconv.FormatUint(blockID, 10), func() (interface{}, error) {
		data, fetchErr := m.fetch(ctx, geometry, loc)
		if fetchErr != nil {
			return nil, fetchErr
		}

		cacheErr := readCache.Put(ctx, loc, data)
		if cacheErr != nil {
			return nil, fmt.Errorf("failed to fill read cache: %w", cacheErr)
		}

		return data, nil
	})
	if err != nil {
		return nil, err
	}

	data := v.([]byte)
	if shared {
		// Duplicate callers got the same underlying slice; hand each its
		// own copy so the caller-owns-the-slice contract holds.
		out := make([]byte, len(data))
		copy(out, data)
		data = out
	}

	return data, nil
}

// Close releases the read cache, if any. The backing store is owned by the
// caller and stays open.
func (m *KV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readCache == nil {
		return nil
	}

	err := m.readCache.Close()
	m.readCache = nil

	return err
}

func (m *KV) fetch(ctx context.Context, geometry block.Geometry, loc block.Location) ([]byte, error) {
	// A fresh buffer starts zeroed, so a short or absent backing range
	// needs no explicit padding.
	data := make([]byte, geometry.BlockSize)

	_, err := m.store.ReadRange(ctx, m.key(loc.Blob), loc.Offset, data)
	if err != nil {
		return nil, &BackendError{Op: "range read", Err: err}
	}

	return data, nil
}

func (m *KV) config() (block.Geometry, *cache.Cache, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return block.Geometry{}, nil, ErrNotInitialized
	}

	return m.geometry, m.readCache, nil
}

func (m *KV) key(blob uint64) string {
	return m.prefix + strconv.FormatUint(blob, 10)
}
