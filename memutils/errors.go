package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

var (
	// ErrIndexOutOfRange is returned when a handle refers to a slot index that was never allocated
	// by the pool it was presented to. This usually means the handle came from a different pool or
	// was corrupted, and indicates misuse rather than a stale handle.
	ErrIndexOutOfRange error = errors.New("slot index out of range")
	// ErrNotFound is returned when a handle's generation no longer matches the generation stored in
	// its slot, i.e. the object the handle named has been destroyed. This is the expected result of
	// using a stale handle and is always safe to recover from.
	ErrNotFound error = errors.New("no live object for handle")
	// ErrEmpty is returned from freelist.FreeList.Pop when no recyclable indices remain
	ErrEmpty error = errors.New("free list is empty")
	// ErrCapacityExhausted is returned when a pool cannot grow any further, either because its
	// configured chunk limit was reached or because the handle layout cannot address more slots
	ErrCapacityExhausted error = errors.New("slot capacity exhausted")
	// ErrPoolClosed is returned from every pool operation after the pool has been closed
	ErrPoolClosed error = errors.New("pool has been closed")
)
