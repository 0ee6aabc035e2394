package chunk

// Slot is a single storage cell within a Chunk. It holds the slot's generation counter alongside
// the payload. Payload is only meaningful while the slot is occupied.
type Slot[T any] struct {
	Payload T

	generation uint32
	occupied   bool
	retired    bool
}

// Generation returns the slot's current generation. It begins at 0 and is advanced by the
// owning pool each time the slot's occupant is destroyed.
func (s *Slot[T]) Generation() uint32 { return s.generation }

// IsOccupied returns true if the slot currently holds a live object
func (s *Slot[T]) IsOccupied() bool { return s.occupied }

// IsRetired returns true if the slot was permanently removed from circulation
func (s *Slot[T]) IsRetired() bool { return s.retired }

// MarkOccupied transitions a free slot into the occupied state. The generation is unchanged.
func (s *Slot[T]) MarkOccupied() {
	if s.occupied {
		panic("attempting to occupy a slot that is already in use")
	}
	if s.retired {
		panic("attempting to occupy a retired slot")
	}
	s.occupied = true
}

// MarkFree transitions an occupied slot back to the free state, clears the payload, and stores
// the slot's next generation.
func (s *Slot[T]) MarkFree(nextGeneration uint32) {
	if !s.occupied {
		panic("attempting to free a slot that is not in use")
	}

	var zero T
	s.Payload = zero
	s.occupied = false
	s.generation = nextGeneration
}

// Retire permanently removes a free slot from circulation
func (s *Slot[T]) Retire() {
	if s.occupied {
		panic("attempting to retire a slot that is still in use")
	}
	s.retired = true
}

// Chunk is a fixed-size run of slots. A chunk's slots are allocated once and are never moved or
// resized, so pointers into a chunk remain valid for as long as the chunk is alive.
type Chunk[T any] struct {
	id    int
	slots []Slot[T]
}

func newChunk[T any](id int, size int) *Chunk[T] {
	return &Chunk[T]{
		id:    id,
		slots: make([]Slot[T], size),
	}
}

// ID is the chunk's position within its List
func (c *Chunk[T]) ID() int { return c.id }

// Len is the number of slots in the chunk
func (c *Chunk[T]) Len() int { return len(c.slots) }

// Slot returns the slot at the provided offset within the chunk
func (c *Chunk[T]) Slot(offset int) *Slot[T] { return &c.slots[offset] }
