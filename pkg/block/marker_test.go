package block

import (
	"sync"
	"testing"
)

func TestMarker(t *testing.T) {
	m := NewMarker(128)
	if m == nil {
		t.Fatal("NewMarker() should not return nil")
	}

	m.Mark(1)
	if !m.IsMarked(1) {
		t.Error("Mark(1) was called, but IsMarked(1) returned false")
	}

	if m.IsMarked(2) {
		t.Error("IsMarked(2) should return false for an unmarked slot")
	}

	// Marking past the preallocated size must grow, not panic.
	m.Mark(1000)
	if !m.IsMarked(1000) {
		t.Error("Mark(1000) was called, but IsMarked(1000) returned false")
	}
}

func TestMarkerConcurrent(t *testing.T) {
	m := NewMarker(128)

	const numGoroutines = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(slot uint32) {
			defer wg.Done()
			m.Mark(slot)
			if !m.IsMarked(slot) {
				t.Errorf("concurrent Mark(%d)/IsMarked(%d) failed", slot, slot)
			}
		}(uint32(i))
	}
	wg.Wait()
}
