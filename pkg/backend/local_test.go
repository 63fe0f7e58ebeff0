package backend

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRejectsInvalidValueSize(t *testing.T) {
	_, err := NewLocal(t.TempDir(), 0)
	assert.Error(t, err)

	_, err = NewLocal(t.TempDir(), -1)
	assert.Error(t, err)
}

func TestLocalReadMissingKey(t *testing.T) {
	ctx := context.Background()

	s, err := NewLocal(t.TempDir(), 1024)
	require.NoError(t, err)
	defer s.Close()

	p := make([]byte, 16)
	n, err := s.ReadRange(ctx, "missing", 0, p)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Reading must not materialize a file.
	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalWriteReadRange(t *testing.T) {
	ctx := context.Background()

	s, err := NewLocal(t.TempDir(), 1024)
	require.NoError(t, err)
	defer s.Close()

	data := bytes.Repeat([]byte{0x42}, 64)
	require.NoError(t, s.WriteRange(ctx, "7", 256, data))

	got := make([]byte, 64)
	n, err := s.ReadRange(ctx, "7", 256, got)
	require.NoError(t, err)
	assert.Equal(t, 64, n)
	assert.Equal(t, data, got)

	// Untouched ranges of a materialized value read as zeros.
	head := make([]byte, 256)
	n, err = s.ReadRange(ctx, "7", 0, head)
	require.NoError(t, err)
	assert.Equal(t, 256, n)
	assert.Equal(t, make([]byte, 256), head)
}

func TestLocalRejectsOutOfRangeWrite(t *testing.T) {
	ctx := context.Background()

	s, err := NewLocal(t.TempDir(), 128)
	require.NoError(t, err)
	defer s.Close()

	err = s.WriteRange(ctx, "k", 120, make([]byte, 16))
	assert.Error(t, err)

	err = s.WriteRange(ctx, "k", -1, make([]byte, 4))
	assert.Error(t, err)
}

func TestLocalPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewLocal(dir, 512)
	require.NoError(t, err)

	data := bytes.Repeat([]byte{0x01}, 32)
	require.NoError(t, s.WriteRange(ctx, "3", 64, data))
	require.NoError(t, s.Close())

	reopened, err := NewLocal(dir, 512)
	require.NoError(t, err)
	defer reopened.Close()

	got := make([]byte, 32)
	n, err := reopened.ReadRange(ctx, "3", 64, got)
	require.NoError(t, err)
	assert.Equal(t, 32, n)
	assert.Equal(t, data, got)

	info, err := os.Stat(filepath.Join(dir, "3"))
	require.NoError(t, err)
	assert.Equal(t, int64(512), info.Size())
}

func TestLocalSync(t *testing.T) {
	ctx := context.Background()

	s, err := NewLocal(t.TempDir(), 256)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WriteRange(ctx, "a", 0, []byte{1}))
	require.NoError(t, s.WriteRange(ctx, "b", 0, []byte{2}))

	assert.NoError(t, s.Sync())
}
