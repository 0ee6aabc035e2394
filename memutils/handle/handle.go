package handle

import (
	"fmt"

	cerrors "github.com/cockroachdb/errors"
)

// Handle is an opaque reference to an object owned by a slot pool. It packs a slot index and the
// generation that slot had when the object was created into a single integer. Handles carry no
// ownership: they are capabilities that ask the pool for temporary access and may be copied, compared,
// and used as map keys freely.
//
// A Handle should only be constructed by a pool or by Layout.Encode. Its bits only have meaning relative
// to the Layout of the pool that issued it.
type Handle uint64

const (
	// MaxIndexBits is the widest index a Layout can describe
	MaxIndexBits uint8 = 32
	// MaxGenerationBits is the widest generation a Layout can describe
	MaxGenerationBits uint8 = 32
)

// Layout describes how a Handle's bits are split between index and generation. The index occupies
// the low IndexBits bits and the generation the GenerationBits bits above it, so two handles with
// the same index but different generations never compare equal.
//
// A Layout must not change while handles issued under it are still live.
type Layout struct {
	IndexBits      uint8
	GenerationBits uint8
}

// DefaultLayout is a 32-bit index in the low half of the handle and a 32-bit generation in the high half
var DefaultLayout = Layout{IndexBits: 32, GenerationBits: 32}

// Validate returns an error if the layout cannot be used to encode handles
func (l Layout) Validate() error {
	if l.IndexBits == 0 || l.IndexBits > MaxIndexBits {
		return cerrors.Newf("index bits must be between 1 and %d, but was %d", MaxIndexBits, l.IndexBits)
	}
	if l.GenerationBits == 0 || l.GenerationBits > MaxGenerationBits {
		return cerrors.Newf("generation bits must be between 1 and %d, but was %d", MaxGenerationBits, l.GenerationBits)
	}
	return nil
}

func (l Layout) indexMask() uint64 {
	return (uint64(1) << l.IndexBits) - 1
}

func (l Layout) generationMask() uint64 {
	return (uint64(1) << l.GenerationBits) - 1
}

// MaxIndex is the largest slot index this layout can address
func (l Layout) MaxIndex() uint32 {
	return uint32(l.indexMask())
}

// MaxGeneration is the largest generation this layout can carry. Generations past this value
// wrap back to zero.
func (l Layout) MaxGeneration() uint32 {
	return uint32(l.generationMask())
}

// Encode packs an index and generation into a Handle. Bits above IndexBits in index and above
// GenerationBits in generation are discarded.
func (l Layout) Encode(index, generation uint32) Handle {
	return Handle((uint64(generation)&l.generationMask())<<l.IndexBits | uint64(index)&l.indexMask())
}

// Decode is the exact inverse of Encode for indices and generations that fit the layout
func (l Layout) Decode(h Handle) (index uint32, generation uint32) {
	index = uint32(uint64(h) & l.indexMask())
	generation = uint32((uint64(h) >> l.IndexBits) & l.generationMask())
	return index, generation
}

// Index returns only the slot index of a handle
func (l Layout) Index(h Handle) uint32 {
	return uint32(uint64(h) & l.indexMask())
}

// Generation returns only the generation of a handle
func (l Layout) Generation(h Handle) uint32 {
	return uint32((uint64(h) >> l.IndexBits) & l.generationMask())
}

// NextGeneration returns the generation that follows the provided one, and whether the counter
// wrapped around to zero in the process
func (l Layout) NextGeneration(generation uint32) (uint32, bool) {
	if generation >= l.MaxGeneration() {
		return 0, true
	}
	return generation + 1, false
}

// Compare orders handles index-major, generation-minor. It returns -1, 0, or 1.
func (l Layout) Compare(a, b Handle) int {
	aIndex, aGeneration := l.Decode(a)
	bIndex, bGeneration := l.Decode(b)

	switch {
	case aIndex < bIndex:
		return -1
	case aIndex > bIndex:
		return 1
	case aGeneration < bGeneration:
		return -1
	case aGeneration > bGeneration:
		return 1
	}
	return 0
}

// Format renders a handle as index and generation for logging
func (l Layout) Format(h Handle) string {
	index, generation := l.Decode(h)
	return fmt.Sprintf("%d:%d", index, generation)
}
