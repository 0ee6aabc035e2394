package slotmap

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/vkngwrapper/slotpool/memutils"
	"github.com/vkngwrapper/slotpool/memutils/chunk"
	"github.com/vkngwrapper/slotpool/memutils/freelist"
	"github.com/vkngwrapper/slotpool/memutils/handle"
	"github.com/vkngwrapper/slotpool/slotmap/internal/utils"
	"golang.org/x/exp/slog"
)

// Pool is a generational slot map. It stores values of T in chunked, address-stable storage and
// hands out Handles that name them. A Handle stays usable until the value it names is destroyed;
// after that it is rejected with memutils.ErrNotFound forever, even once its slot has been reused
// by an unrelated value.
//
// Pointers returned from Get remain valid while the value they point to is live: growing the pool
// never moves existing values. They must not be retained past Destroy of the same handle.
//
// Unless the pool was created with CreateSynchronized, it must only be used by one goroutine at a time.
type Pool[T any] struct {
	logger *slog.Logger
	name   string
	flags  CreateFlags

	layout        handle.Layout
	policy        GenerationPolicy
	maxChunkCount int
	onDestroy     func(h handle.Handle, payload *T)

	mutex    utils.OptionalRWMutex
	chunks   *chunk.List[T]
	freeList freelist.FreeList

	occupied int
	retired  int
	closed   bool
}

func (p *Pool[T]) Name() string                       { return p.name }
func (p *Pool[T]) Flags() CreateFlags                 { return p.flags }
func (p *Pool[T]) Layout() handle.Layout              { return p.layout }
func (p *Pool[T]) GenerationPolicy() GenerationPolicy { return p.policy }
func (p *Pool[T]) ChunkSize() int                     { return p.chunks.ChunkSize() }

// Len returns the number of live values in the pool
func (p *Pool[T]) Len() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.occupied
}

// Capacity returns the number of slots the pool has allocated, live or not
func (p *Pool[T]) Capacity() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.chunks.Len()
}

// ChunkCount returns the number of chunks the pool has allocated
func (p *Pool[T]) ChunkCount() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.chunks.ChunkCount()
}

func (p *Pool[T]) grow() error {
	return p.allocateChunks(1)
}

// allocateChunks appends count chunks and pushes every new index onto the free list at once, so the
// lowest new index is handed out first no matter how many chunks were added
func (p *Pool[T]) allocateChunks(count int) error {
	first := p.chunks.Len()
	defer func() {
		added := p.chunks.Len() - first
		if added > 0 {
			p.freeList.PushDescending(uint32(first), added)
			memutils.DebugValidate(&p.freeList)
		}
	}()

	for i := 0; i < count; i++ {
		err := p.addChunk()
		if err != nil {
			return err
		}
	}

	return nil
}

func (p *Pool[T]) addChunk() error {
	chunkCount := p.chunks.ChunkCount()
	if p.maxChunkCount > 0 && chunkCount >= p.maxChunkCount {
		return errors.Wrapf(memutils.ErrCapacityExhausted, "pool already has its maximum of %d chunks", p.maxChunkCount)
	}

	first := uint64(p.chunks.Len())
	if first+uint64(p.chunks.ChunkSize())-1 > uint64(p.layout.MaxIndex()) {
		return errors.Wrapf(memutils.ErrCapacityExhausted, "%d index bits cannot address another chunk", p.layout.IndexBits)
	}

	added := p.chunks.Grow()

	p.logger.LogAttrs(context.Background(), slog.LevelDebug, "Pool::grow",
		slog.String("pool", p.name),
		slog.Int("chunk.id", chunkCount),
		slog.Int("slots", added),
	)

	return nil
}

func (p *Pool[T]) locate(h handle.Handle) (*chunk.Slot[T], uint32, uint32, error) {
	index, generation := p.layout.Decode(h)
	slot, err := p.chunks.Locate(index)
	if err != nil {
		return nil, index, generation, err
	}

	return slot, index, generation, nil
}

// Create claims a free slot, growing the pool if none remain, and returns a handle to it. If init is
// not nil, it is called with the new handle and a pointer to the zeroed payload before Create returns,
// so the payload can be initialized in place. init must not call back into the pool. If init panics,
// the slot is released before the panic propagates and the handle is never issued.
//
// Create only fails with memutils.ErrCapacityExhausted when the pool can no longer grow, or with
// memutils.ErrPoolClosed.
func (p *Pool[T]) Create(init func(h handle.Handle, payload *T)) (handle.Handle, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return 0, memutils.ErrPoolClosed
	}

	if p.freeList.IsEmpty() {
		err := p.grow()
		if err != nil {
			return 0, err
		}
	}

	index, err := p.freeList.Pop()
	if err != nil {
		panic(fmt.Sprintf("free list was empty immediately after growth: %+v", err))
	}

	slot, err := p.chunks.Locate(index)
	if err != nil {
		panic(fmt.Sprintf("free list contained an unallocated index: %+v", err))
	}

	slot.MarkOccupied()
	p.occupied++

	h := p.layout.Encode(index, slot.Generation())
	if init != nil {
		// A panicking init never hands out h, so the slot goes back unchanged
		committed := false
		defer func() {
			if !committed {
				slot.MarkFree(slot.Generation())
				p.occupied--
				p.freeList.Push(index)
			}
		}()

		init(h, &slot.Payload)
		committed = true
	}

	return h, nil
}

// Insert stores a copy of value in a free slot and returns a handle to it
func (p *Pool[T]) Insert(value T) (handle.Handle, error) {
	return p.Create(func(_ handle.Handle, payload *T) {
		*payload = value
	})
}

// Get returns a pointer to the value named by h. memutils.ErrNotFound is returned if the value
// has been destroyed, and an error wrapping memutils.ErrIndexOutOfRange is returned if h was never
// issued by this pool.
func (p *Pool[T]) Get(h handle.Handle) (*T, error) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.closed {
		return nil, memutils.ErrPoolClosed
	}

	slot, _, generation, err := p.locate(h)
	if err != nil {
		return nil, err
	}

	if !slot.IsOccupied() || slot.Generation() != generation {
		return nil, memutils.ErrNotFound
	}

	return &slot.Payload, nil
}

// Contains returns true if h names a live value in this pool
func (p *Pool[T]) Contains(h handle.Handle) bool {
	_, err := p.Get(h)
	return err == nil
}

// Destroy releases the value named by h. The slot's generation advances, so h and every copy of
// it are permanently invalid afterward. Destroying a stale handle does nothing and returns
// memutils.ErrNotFound: it never touches a slot that has since been reused.
func (p *Pool[T]) Destroy(h handle.Handle) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return memutils.ErrPoolClosed
	}

	slot, index, generation, err := p.locate(h)
	if err != nil {
		return err
	}

	if !slot.IsOccupied() || slot.Generation() != generation {
		return memutils.ErrNotFound
	}

	if p.onDestroy != nil {
		p.onDestroy(h, &slot.Payload)
	}

	p.occupied--

	nextGeneration, wrapped := p.layout.NextGeneration(generation)
	if wrapped && p.policy == GenerationRetire {
		slot.MarkFree(generation)
		slot.Retire()
		p.retired++

		p.logger.LogAttrs(context.Background(), slog.LevelDebug, "Pool::Destroy retired exhausted slot",
			slog.String("pool", p.name),
			slog.Int("index", int(index)),
			slog.Int("generation", int(generation)),
		)
		return nil
	}

	slot.MarkFree(nextGeneration)
	p.freeList.Push(index)

	return nil
}

// Visit calls the provided callback once for each live value in the pool, in slot index order.
// Iteration stops at the first error, which is returned. The callback must not create or destroy
// values in the pool.
func (p *Pool[T]) Visit(visit func(h handle.Handle, payload *T) error) error {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.closed {
		return memutils.ErrPoolClosed
	}

	return p.chunks.Visit(func(index uint32, slot *chunk.Slot[T]) error {
		if !slot.IsOccupied() {
			return nil
		}

		return visit(p.layout.Encode(index, slot.Generation()), &slot.Payload)
	})
}

// Close releases all of the pool's storage. Any values still live are reported to the logger and
// passed to OnDestroy. Every handle the pool issued is permanently invalid afterward, and every
// further call on the pool returns memutils.ErrPoolClosed.
func (p *Pool[T]) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return memutils.ErrPoolClosed
	}

	p.logger.Debug("Pool::Close", slog.String("pool", p.name))

	if p.occupied > 0 {
		_ = p.chunks.Visit(func(index uint32, slot *chunk.Slot[T]) error {
			if !slot.IsOccupied() {
				return nil
			}

			h := p.layout.Encode(index, slot.Generation())
			p.logUnreleasedSlot(h)
			if p.onDestroy != nil {
				p.onDestroy(h, &slot.Payload)
			}
			return nil
		})
	}

	p.chunks.Release()
	p.freeList.Clear()
	p.occupied = 0
	p.retired = 0
	p.closed = true

	return nil
}

func (p *Pool[T]) logUnreleasedSlot(h handle.Handle) {
	name := p.name
	if name == "" {
		name = "empty"
	}

	index, generation := p.layout.Decode(h)
	p.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED SLOT] value still live when pool was closed",
		slog.Int("index", int(index)),
		slog.Int("generation", int(generation)),
		slog.String("pool", name),
	)
}

// Validate performs internal consistency checks on the pool. It walks every slot, so it should be
// reserved for diagnostics. When the pool is functioning correctly it is not possible for this
// method to return an error.
func (p *Pool[T]) Validate() error {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.closed {
		return nil
	}

	err := p.chunks.Validate()
	if err != nil {
		return err
	}

	freeSet, err := p.freeList.Set()
	if err != nil {
		return err
	}

	var occupied, retired, free int
	err = p.chunks.Visit(func(index uint32, slot *chunk.Slot[T]) error {
		onFreeList := freeSet.Has(index)

		switch {
		case slot.IsRetired():
			retired++
			if onFreeList {
				return errors.Errorf("retired slot %d is on the free list", index)
			}
		case slot.IsOccupied():
			occupied++
			if onFreeList {
				return errors.Errorf("occupied slot %d is on the free list", index)
			}
		default:
			free++
			if !onFreeList {
				return errors.Errorf("free slot %d is missing from the free list", index)
			}
		}

		if slot.Generation() > p.layout.MaxGeneration() {
			return errors.Errorf("slot %d has generation %d, which does not fit in %d bits", index, slot.Generation(), p.layout.GenerationBits)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if free != freeSet.Count() {
		return errors.Errorf("the free list holds %d indices, but only %d slots are free", freeSet.Count(), free)
	}
	if occupied != p.occupied {
		return errors.Errorf("the pool believes %d slots are occupied, but %d are", p.occupied, occupied)
	}
	if retired != p.retired {
		return errors.Errorf("the pool believes %d slots are retired, but %d are", p.retired, retired)
	}

	return nil
}
