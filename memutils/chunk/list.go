package chunk

import (
	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/slotpool/memutils"
)

// List is an append-only sequence of chunks that together provide a global slot index space.
// Slot i lives at offset i%chunkSize of chunk i/chunkSize. Growing the list never moves or copies
// an existing chunk.
type List[T any] struct {
	chunkSize  int
	chunkShift uint
	offsetMask uint32
	chunks     []*Chunk[T]
}

// NewList creates an empty List whose chunks will each hold chunkSize slots. chunkSize must be a power of two.
func NewList[T any](chunkSize int) (*List[T], error) {
	if err := memutils.CheckPow2(chunkSize, "chunkSize"); err != nil {
		return nil, err
	}

	return &List[T]{
		chunkSize:  chunkSize,
		chunkShift: memutils.Log2(chunkSize),
		offsetMask: uint32(chunkSize - 1),
	}, nil
}

// ChunkSize is the number of slots in each chunk
func (l *List[T]) ChunkSize() int { return l.chunkSize }

// ChunkCount is the number of chunks allocated so far
func (l *List[T]) ChunkCount() int { return len(l.chunks) }

// Len is the number of slots allocated so far
func (l *List[T]) Len() int { return len(l.chunks) * l.chunkSize }

// Chunk returns the chunk at the provided position
func (l *List[T]) Chunk(id int) *Chunk[T] { return l.chunks[id] }

// Grow appends a single new chunk of fresh slots and returns the number of slots it added
func (l *List[T]) Grow() int {
	memutils.DebugCheckPow2(l.chunkSize, "chunkSize")

	l.chunks = append(l.chunks, newChunk[T](len(l.chunks), l.chunkSize))
	return l.chunkSize
}

// Split converts a global slot index into a chunk id and an offset within that chunk
func (l *List[T]) Split(index uint32) (chunkID int, offset int) {
	return int(index >> l.chunkShift), int(index & l.offsetMask)
}

// Locate returns the slot at the provided global index. memutils.ErrIndexOutOfRange is returned
// if the index refers to a slot that has not been allocated.
func (l *List[T]) Locate(index uint32) (*Slot[T], error) {
	chunkID, offset := l.Split(index)
	if chunkID >= len(l.chunks) {
		return nil, cerrors.Wrapf(memutils.ErrIndexOutOfRange, "index %d is beyond the %d allocated slots", index, l.Len())
	}

	return l.chunks[chunkID].Slot(offset), nil
}

// Visit calls the provided callback for every allocated slot in global index order. Iteration stops
// at the first error, which is returned.
func (l *List[T]) Visit(visit func(index uint32, slot *Slot[T]) error) error {
	for chunkID, c := range l.chunks {
		base := uint32(chunkID) << l.chunkShift
		for offset := range c.slots {
			err := visit(base+uint32(offset), &c.slots[offset])
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// Release drops every chunk. Slots obtained from the list before Release must not be used afterward.
func (l *List[T]) Release() {
	l.chunks = nil
}

// Validate checks that every chunk is the size the list expects and sits at the position it was
// created for
func (l *List[T]) Validate() error {
	for position, c := range l.chunks {
		if c == nil {
			return cerrors.Newf("chunk at position %d is missing", position)
		}
		if c.id != position {
			return cerrors.Newf("chunk at position %d believes it is chunk %d", position, c.id)
		}
		if len(c.slots) != l.chunkSize {
			return cerrors.Newf("chunk %d has %d slots, but the list's chunk size is %d", position, len(c.slots), l.chunkSize)
		}
	}

	return nil
}
