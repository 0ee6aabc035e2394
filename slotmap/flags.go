package slotmap

import (
	"strings"
)

// CreateFlags indicate specific pool behaviors to activate or deactivate
type CreateFlags int32

const (
	// CreateSynchronized guards the pool's bookkeeping with an internal read/write mutex so that
	// Create, Get, and Destroy may be called from multiple goroutines. It does not synchronize access
	// to payloads through the pointers Get returns: that remains the consumer's responsibility.
	//
	// Without this flag the pool must only be used by one goroutine at a time.
	CreateSynchronized CreateFlags = 1 << iota
)

var createFlagNames = []struct {
	flag CreateFlags
	name string
}{
	{CreateSynchronized, "CreateSynchronized"},
}

func (f CreateFlags) String() string {
	if f == 0 {
		return "None"
	}

	var names []string
	for _, entry := range createFlagNames {
		if f&entry.flag != 0 {
			names = append(names, entry.name)
			f &^= entry.flag
		}
	}
	if f != 0 {
		names = append(names, "Unknown")
	}

	return strings.Join(names, "|")
}

// GenerationPolicy chooses what a pool does when a slot's generation counter cannot advance any
// further within the pool's handle layout.
type GenerationPolicy int32

const (
	// GenerationWrap allows the generation to wrap back to zero and the slot to be reused. A handle
	// kept across a full cycle of the generation counter will appear valid again, so this policy should
	// only be used when generations are wide enough that a full cycle is implausible.
	GenerationWrap GenerationPolicy = iota
	// GenerationRetire permanently removes a slot from circulation once its generation is exhausted.
	// Stale handles can never validate again, at the cost of one slot per exhausted generation.
	GenerationRetire
)

var generationPolicyMapping = map[GenerationPolicy]string{
	GenerationWrap:   "GenerationWrap",
	GenerationRetire: "GenerationRetire",
}

func (p GenerationPolicy) String() string {
	return generationPolicyMapping[p]
}
