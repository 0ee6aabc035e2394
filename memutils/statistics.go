package memutils

import (
	"math"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// Statistics holds the basic occupancy numbers of one or more slot pools
type Statistics struct {
	ChunkCount    int
	SlotCount     int
	OccupiedCount int
	FreeCount     int
}

func (s *Statistics) Clear() {
	s.ChunkCount = 0
	s.SlotCount = 0
	s.OccupiedCount = 0
	s.FreeCount = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.ChunkCount += other.ChunkCount
	s.SlotCount += other.SlotCount
	s.OccupiedCount += other.OccupiedCount
	s.FreeCount += other.FreeCount
}

// DetailedStatistics extends Statistics with per-slot information that requires walking
// every slot to compute.
type DetailedStatistics struct {
	Statistics
	// RetiredCount is the number of slots that were permanently removed from circulation
	// because their generation counter could not advance any further
	RetiredCount  int
	GenerationMin uint32
	GenerationMax uint32
	// Recycles is the sum of all slot generations: the number of destroys the pool has served
	Recycles uint64
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.RetiredCount = 0
	s.GenerationMin = math.MaxUint32
	s.GenerationMax = 0
	s.Recycles = 0
}

// AddSlot records a single slot in the statistics
func (s *DetailedStatistics) AddSlot(generation uint32, occupied, retired bool) {
	s.SlotCount++
	s.Recycles += uint64(generation)

	switch {
	case retired:
		s.RetiredCount++
	case occupied:
		s.OccupiedCount++
	default:
		s.FreeCount++
	}

	if generation < s.GenerationMin {
		s.GenerationMin = generation
	}

	if generation > s.GenerationMax {
		s.GenerationMax = generation
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.RetiredCount += other.RetiredCount
	s.Recycles += other.Recycles

	if other.GenerationMin < s.GenerationMin {
		s.GenerationMin = other.GenerationMin
	}

	if other.GenerationMax > s.GenerationMax {
		s.GenerationMax = other.GenerationMax
	}
}

// WriteJson populates a json object with the contents of these statistics. Recycles is written as an
// exact integer, saturating at math.MaxInt.
func (s *DetailedStatistics) WriteJson(json jwriter.ObjectState) {
	json.Name("Chunks").Int(s.ChunkCount)
	json.Name("Slots").Int(s.SlotCount)
	json.Name("Occupied").Int(s.OccupiedCount)
	json.Name("Free").Int(s.FreeCount)
	json.Name("Retired").Int(s.RetiredCount)
	recycles := s.Recycles
	if recycles > math.MaxInt {
		recycles = math.MaxInt
	}
	json.Name("Recycles").Int(int(recycles))

	if s.SlotCount > 0 {
		json.Name("GenerationMin").Int(int(s.GenerationMin))
		json.Name("GenerationMax").Int(int(s.GenerationMax))
	}
}
