package slotmap

import (
	"strconv"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/slotpool/memutils"
	"github.com/vkngwrapper/slotpool/memutils/chunk"
)

// AddStatistics sums this pool's occupancy into the provided statistics. It is cheap and
// does not walk the pool's slots.
func (p *Pool[T]) AddStatistics(stats *memutils.Statistics) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	stats.ChunkCount += p.chunks.ChunkCount()
	stats.SlotCount += p.chunks.Len()
	stats.OccupiedCount += p.occupied
	stats.FreeCount += p.freeList.Len()
}

// AddDetailedStatistics walks every slot in the pool and sums the results into the provided statistics
func (p *Pool[T]) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	p.addDetailedStatistics(stats)
}

func (p *Pool[T]) addDetailedStatistics(stats *memutils.DetailedStatistics) {
	stats.ChunkCount += p.chunks.ChunkCount()
	_ = p.chunks.Visit(func(index uint32, slot *chunk.Slot[T]) error {
		stats.AddSlot(slot.Generation(), slot.IsOccupied(), slot.IsRetired())
		return nil
	})
}

// PrintDetailedMap writes a json object describing the pool's configuration, its totals, and every
// live slot in each of its chunks. It walks every slot and is intended for diagnostics.
func (p *Pool[T]) PrintDetailedMap(writer *jwriter.Writer) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	objState := writer.Object()
	defer objState.End()

	objState.Name("Name").String(p.name)
	objState.Name("Flags").String(p.flags.String())
	objState.Name("ChunkSize").Int(p.chunks.ChunkSize())
	objState.Name("IndexBits").Int(int(p.layout.IndexBits))
	objState.Name("GenerationBits").Int(int(p.layout.GenerationBits))
	objState.Name("GenerationPolicy").String(p.policy.String())
	objState.Name("Closed").Bool(p.closed)

	var stats memutils.DetailedStatistics
	stats.Clear()
	p.addDetailedStatistics(&stats)

	totalObj := objState.Name("Total").Object()
	stats.WriteJson(totalObj)
	totalObj.End()

	chunksObj := objState.Name("Chunks").Object()
	defer chunksObj.End()

	for id := 0; id < p.chunks.ChunkCount(); id++ {
		p.printChunk(id, chunksObj.Name(strconv.Itoa(id)).Object())
	}
}

func (p *Pool[T]) printChunk(id int, json jwriter.ObjectState) {
	defer json.End()

	c := p.chunks.Chunk(id)
	base := uint32(id * p.chunks.ChunkSize())

	var occupied int
	for offset := 0; offset < c.Len(); offset++ {
		if c.Slot(offset).IsOccupied() {
			occupied++
		}
	}
	json.Name("Occupied").Int(occupied)

	slots := json.Name("Slots").Array()
	defer slots.End()

	for offset := 0; offset < c.Len(); offset++ {
		slot := c.Slot(offset)
		if !slot.IsOccupied() && !slot.IsRetired() {
			continue
		}

		obj := slots.Object()
		obj.Name("Offset").Int(offset)
		obj.Name("Handle").String(p.layout.Format(p.layout.Encode(base+uint32(offset), slot.Generation())))
		obj.Name("Retired").Bool(slot.IsRetired())
		obj.End()
	}
}

// BuildStatsString renders the pool's detailed map as a json string
func (p *Pool[T]) BuildStatsString() (string, error) {
	writer := jwriter.NewWriter()
	p.PrintDetailedMap(&writer)

	if err := writer.Error(); err != nil {
		return "", err
	}
	return string(writer.Bytes()), nil
}
