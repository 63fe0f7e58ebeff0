// Package backend contains the key-value stores that hold blob bytes.
//
// A Store addresses binary values by key and supports partial-range reads
// and writes inside a value. Implementations must make a single range write
// atomic at byte-range granularity: concurrent writes to non-overlapping
// ranges of the same value must not corrupt each other.
package backend

import "context"

type Store interface {
	// WriteRange writes p at byte offset off within the value named by key.
	// The value is created or zero-extended as needed, so a range that was
	// never written always reads back as zero bytes, never as stale data.
	WriteRange(ctx context.Context, key string, off int64, p []byte) error

	// ReadRange reads up to len(p) bytes at byte offset off within the value
	// named by key and returns the number of bytes that actually exist in
	// the store. A missing key or a short value is not an error: the caller
	// treats bytes past the returned count as zero.
	ReadRange(ctx context.Context, key string, off int64, p []byte) (int, error)
}
