package cache

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drusskikh/blobmanager/pkg/block"
)

func newTestCache(t *testing.T) (*Cache, block.Geometry) {
	t.Helper()

	g, err := block.NewGeometry(512, 8)
	require.NoError(t, err)

	c, err := New(t.TempDir(), g)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, c.Close())
	})

	return c, g
}

func TestCacheMissOnEmptySlot(t *testing.T) {
	ctx := context.Background()
	c, g := newTestCache(t)

	_, ok := c.Get(ctx, g.Locate(0))
	assert.False(t, ok)
}

func TestCachePutGet(t *testing.T) {
	ctx := context.Background()
	c, g := newTestCache(t)

	loc := g.Locate(13)
	data := bytes.Repeat([]byte{0x13}, 512)

	require.NoError(t, c.Put(ctx, loc, data))

	got, ok := c.Get(ctx, loc)
	require.True(t, ok)
	assert.Equal(t, data, got)
}

func TestCacheDistinguishesCachedZeros(t *testing.T) {
	ctx := context.Background()
	c, g := newTestCache(t)

	loc := g.Locate(3)
	require.NoError(t, c.Put(ctx, loc, make([]byte, 512)))

	// The cached zero block is a hit, its neighbor is not, even though
	// both ranges of the cache file hold identical zero bytes.
	got, ok := c.Get(ctx, loc)
	require.True(t, ok)
	assert.Equal(t, make([]byte, 512), got)

	_, ok = c.Get(ctx, g.Locate(4))
	assert.False(t, ok)
}

func TestCacheSlotsAreIndependent(t *testing.T) {
	ctx := context.Background()
	c, g := newTestCache(t)

	require.NoError(t, c.Put(ctx, g.Locate(0), bytes.Repeat([]byte{0xaa}, 512)))
	require.NoError(t, c.Put(ctx, g.Locate(1), bytes.Repeat([]byte{0xbb}, 512)))

	// Same slot index in a different blob is separate state.
	require.NoError(t, c.Put(ctx, g.Locate(8), bytes.Repeat([]byte{0xcc}, 512)))

	got, ok := c.Get(ctx, g.Locate(0))
	require.True(t, ok)
	assert.Equal(t, bytes.Repeat([]byte{0xaa}, 512), got)

	got, ok = c.Get(ctx, g.Locate(8))
	require.True(t, ok)
	assert.Equal(t, bytes.Repeat([]byte{0xcc}, 512), got)
}

func TestCacheGetCopiesOut(t *testing.T) {
	ctx := context.Background()
	c, g := newTestCache(t)

	loc := g.Locate(2)
	require.NoError(t, c.Put(ctx, loc, bytes.Repeat([]byte{0x11}, 512)))

	first, ok := c.Get(ctx, loc)
	require.True(t, ok)
	first[0] = 0xff

	second, ok := c.Get(ctx, loc)
	require.True(t, ok)
	assert.Equal(t, bytes.Repeat([]byte{0x11}, 512), second)
}

func TestCacheStartsColdOverExistingDir(t *testing.T) {
	ctx := context.Background()

	g, err := block.NewGeometry(512, 8)
	require.NoError(t, err)

	dir := t.TempDir()

	c, err := New(dir, g)
	require.NoError(t, err)

	loc := g.Locate(5)
	require.NoError(t, c.Put(ctx, loc, bytes.Repeat([]byte{0x05}, 512)))
	require.NoError(t, c.Close())

	// Markers are in-memory state: a new cache over the same directory
	// trusts nothing until it is filled again.
	reopened, err := New(dir, g)
	require.NoError(t, err)
	defer reopened.Close()

	_, ok := reopened.Get(ctx, loc)
	assert.False(t, ok)
}
