package block

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry is returned when the configured block geometry is
// unusable: a zero block size, zero blocks per blob, or a blob byte size
// that does not fit into an int64 offset.
var ErrInvalidGeometry = errors.New("invalid block geometry")

// ErrSizeMismatch is returned when a block payload does not match the
// configured block size exactly.
var ErrSizeMismatch = errors.New("block payload size mismatch")

// Geometry describes how fixed-size blocks are packed into blobs.
// It is immutable after construction via NewGeometry.
type Geometry struct {
	// BlockSize is the payload size of a single block in bytes.
	BlockSize uint64
	// BlocksPerBlob is the number of consecutive blocks stored in one blob.
	BlocksPerBlob uint32
}

// Location is the resolved position of a block: the blob that holds it,
// the slot index inside that blob, and the byte offset of the slot.
type Location struct {
	Blob   uint64
	Slot   uint32
	Offset int64
}

func NewGeometry(blockSize uint64, blocksPerBlob uint32) (Geometry, error) {
	if blockSize == 0 || blocksPerBlob == 0 {
		return Geometry{}, fmt.Errorf("%w: block size %d, blocks per blob %d", ErrInvalidGeometry, blockSize, blocksPerBlob)
	}

	if blockSize > math.MaxInt64/uint64(blocksPerBlob) {
		return Geometry{}, fmt.Errorf("%w: blob byte size %d*%d overflows int64", ErrInvalidGeometry, blockSize, blocksPerBlob)
	}

	return Geometry{
		BlockSize:     blockSize,
		BlocksPerBlob: blocksPerBlob,
	}, nil
}

// Locate maps a block id to its blob and byte offset. The mapping is total
// and deterministic: block ids that share a blob never share a byte range.
func (g Geometry) Locate(blockID uint64) Location {
	blob := blockID / uint64(g.BlocksPerBlob)
	slot := blockID % uint64(g.BlocksPerBlob)

	return Location{
		Blob:   blob,
		Slot:   uint32(slot),
		Offset: int64(slot * g.BlockSize),
	}
}

// BlobSize returns the byte size of a fully populated blob.
func (g Geometry) BlobSize() int64 {
	return int64(g.BlockSize) * int64(g.BlocksPerBlob)
}

// ValidatePayload checks that a block payload has exactly BlockSize bytes.
func (g Geometry) ValidatePayload(p []byte) error {
	if uint64(len(p)) != g.BlockSize {
		return fmt.Errorf("%w: got %d bytes, expected %d", ErrSizeMismatch, len(p), g.BlockSize)
	}

	return nil
}
