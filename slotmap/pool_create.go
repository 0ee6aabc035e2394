package slotmap

import (
	"github.com/pkg/errors"
	"github.com/vkngwrapper/slotpool/memutils"
	"github.com/vkngwrapper/slotpool/memutils/chunk"
	"github.com/vkngwrapper/slotpool/memutils/handle"
	"github.com/vkngwrapper/slotpool/slotmap/internal/utils"
	"golang.org/x/exp/slog"
)

const (
	// DefaultChunkSize is the number of slots allocated per growth step when CreateOptions.ChunkSize is 0
	DefaultChunkSize int = 256
)

// CreateOptions contains optional settings when creating a pool. It is valid to leave every
// field blank. None of these settings can be changed once the pool is created.
type CreateOptions[T any] struct {
	// Flags indicates specific pool behaviors to activate or deactivate
	Flags CreateFlags
	// Name is used to identify the pool in logs and detailed maps
	Name string

	// ChunkSize is the number of slots allocated each time the pool grows. It must be a power of two.
	// DefaultChunkSize is used if it is 0.
	ChunkSize int
	// MinChunkCount is the number of chunks allocated up front by New
	MinChunkCount int
	// MaxChunkCount limits how far the pool may grow. 0 means the pool may grow until the handle
	// layout can no longer address new slots.
	MaxChunkCount int

	// Layout is the bit layout of the handles this pool issues. handle.DefaultLayout is used if it is
	// left blank.
	Layout handle.Layout
	// GenerationPolicy decides what happens to a slot whose generation counter is exhausted
	GenerationPolicy GenerationPolicy

	// OnDestroy, if provided, is called with each payload immediately before it is cleared, whether
	// by Destroy or by Close. It must not call back into the pool.
	OnDestroy func(h handle.Handle, payload *T)
}

// New creates a new, empty Pool of T.
//
// logger - The logger that the pool reports growth and teardown to. slog.Default is used if nil.
//
// options - Optional parameters: it is valid to leave all the fields blank
func New[T any](logger *slog.Logger, options CreateOptions[T]) (*Pool[T], error) {
	if logger == nil {
		logger = slog.Default()
	}

	layout := options.Layout
	if layout == (handle.Layout{}) {
		layout = handle.DefaultLayout
	}
	if err := layout.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid handle layout")
	}

	chunkSize := options.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	} else if chunkSize < 0 {
		return nil, errors.Errorf("chunk size must be positive, but was %d", chunkSize)
	}
	if uint64(chunkSize)-1 > uint64(layout.MaxIndex()) {
		return nil, errors.Errorf("chunk size %d cannot be addressed by %d index bits", chunkSize, layout.IndexBits)
	}

	if options.MinChunkCount < 0 || options.MaxChunkCount < 0 {
		return nil, errors.New("chunk counts may not be negative")
	}
	if options.MaxChunkCount > 0 && options.MinChunkCount > options.MaxChunkCount {
		return nil, errors.Errorf("min chunk count %d is greater than max chunk count %d", options.MinChunkCount, options.MaxChunkCount)
	}

	if _, known := generationPolicyMapping[options.GenerationPolicy]; !known {
		return nil, errors.Errorf("unknown generation policy: %d", options.GenerationPolicy)
	}

	chunks, err := chunk.NewList[T](chunkSize)
	if err != nil {
		return nil, err
	}

	pool := &Pool[T]{
		logger:        logger,
		name:          options.Name,
		flags:         options.Flags,
		layout:        layout,
		policy:        options.GenerationPolicy,
		maxChunkCount: options.MaxChunkCount,
		onDestroy:     options.OnDestroy,
		chunks:        chunks,
		mutex: utils.OptionalRWMutex{
			UseMutex: options.Flags&CreateSynchronized != 0,
		},
	}

	err = pool.allocateChunks(options.MinChunkCount)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to allocate %d initial chunks", options.MinChunkCount)
	}

	memutils.DebugValidate(pool)

	return pool, nil
}
