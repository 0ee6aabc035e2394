package freelist

import (
	cerrors "github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/slotpool/memutils"
)

// FreeList is a LIFO stack of recyclable global slot indices. The most recently freed index is
// always the next one handed out, which keeps churny workloads on warm slots.
type FreeList struct {
	indices []uint32
}

// Len is the number of indices available for reuse
func (f *FreeList) Len() int { return len(f.indices) }

// IsEmpty returns true if no indices are available for reuse
func (f *FreeList) IsEmpty() bool { return len(f.indices) == 0 }

// Push makes an index available for reuse
func (f *FreeList) Push(index uint32) {
	f.indices = append(f.indices, index)
}

// PushDescending pushes count consecutive indices beginning at first, highest index first. The
// lowest index ends up on top of the stack and is the first one popped.
func (f *FreeList) PushDescending(first uint32, count int) {
	for i := count - 1; i >= 0; i-- {
		f.indices = append(f.indices, first+uint32(i))
	}
}

// Pop removes and returns the most recently pushed index. memutils.ErrEmpty is returned if the
// list has no indices.
func (f *FreeList) Pop() (uint32, error) {
	last := len(f.indices) - 1
	if last < 0 {
		return 0, memutils.ErrEmpty
	}

	index := f.indices[last]
	f.indices = f.indices[:last]
	return index, nil
}

// Visit calls the provided callback for each index on the list, from the bottom of the stack to the top
func (f *FreeList) Visit(visit func(index uint32) error) error {
	for _, index := range f.indices {
		if err := visit(index); err != nil {
			return err
		}
	}
	return nil
}

// Set returns the list's contents as a set, failing if any index appears more than once
func (f *FreeList) Set() (*swiss.Map[uint32, struct{}], error) {
	set := swiss.NewMap[uint32, struct{}](uint32(len(f.indices)))
	for position, index := range f.indices {
		if set.Has(index) {
			return nil, cerrors.Newf("index %d appears in the free list more than once (second time at position %d)", index, position)
		}
		set.Put(index, struct{}{})
	}

	return set, nil
}

// Validate checks that no index is on the list twice
func (f *FreeList) Validate() error {
	_, err := f.Set()
	return err
}

// Clear empties the list
func (f *FreeList) Clear() {
	f.indices = nil
}
