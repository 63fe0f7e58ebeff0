package block

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// Marker tracks which block slots of a blob hold known data.
// It is safe for concurrent use.
type Marker struct {
	bitset *bitset.BitSet
	mu     sync.RWMutex
}

func NewMarker(slots uint) *Marker {
	return &Marker{
		bitset: bitset.New(slots),
	}
}

func (m *Marker) Mark(slot uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bitset.Set(uint(slot))
}

func (m *Marker) IsMarked(slot uint32) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.bitset.Test(uint(slot))
}
