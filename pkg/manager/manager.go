// Package manager provides fixed-size block storage on top of a key-value
// backing store. Blocks are packed into larger blobs, each blob persisted
// as one binary value, and a block's position is derived deterministically
// from its id and the configured geometry.
package manager

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by block operations before a
	// successful Init.
	ErrNotInitialized = errors.New("blob manager is not initialized")

	// ErrAlreadyInitialized is returned by a second Init on the same
	// instance. The original configuration stays in effect.
	ErrAlreadyInitialized = errors.New("blob manager is already initialized")
)

// BackendError wraps a failure of the backing key-value store. The manager
// performs no retries; the wrapped cause is available via errors.Unwrap.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backing store %s failed: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Manager is the capability contract for block storage backends.
//
// A Manager starts uninitialized. Init fixes the geometry exactly once;
// every other operation fails with ErrNotInitialized until then. Put and
// get of distinct block ids never interfere, even when the blocks share a
// blob, and a block that was never written reads as zero bytes.
type Manager interface {
	// Init configures the block geometry. It fails with
	// block.ErrInvalidGeometry on non-positive or overflowing values and
	// with ErrAlreadyInitialized when called twice. It touches no state in
	// the backing store.
	Init(blockSize uint64, blocksPerBlob uint32) error

	// PutBlock stores a payload of exactly blockSize bytes under blockID.
	// A following GetBlock for the same id returns exactly this payload,
	// from any manager sharing the backing store.
	PutBlock(ctx context.Context, blockID uint64, data []byte) error

	// GetBlock returns the blockSize-byte payload most recently stored
	// under blockID, or all zero bytes when the block was never written.
	// The returned slice is owned by the caller.
	GetBlock(ctx context.Context, blockID uint64) ([]byte, error)
}
