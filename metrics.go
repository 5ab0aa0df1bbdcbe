package rawalloc

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// SizeInUse returns the total number of bytes currently allocated in the arena.
// This includes internal fragmentation due to alignment.
func (a *Arena) SizeInUse() int {
	sum := 0
	for _, c := range a.chunks {
		sum += int(c.offset)
	}
	return sum
}

// NumChunks returns the number of chunks currently allocated by the arena.
func (a *Arena) NumChunks() int {
	return len(a.chunks)
}

// Capacity returns the total capacity (in bytes) of all chunks in the arena.
func (a *Arena) Capacity() int {
	return a.capacity
}

// Utilization returns the ratio of bytes in use to total capacity (0.0 to 1.0).
// Returns 0.0 if the arena has no capacity.
func (a *Arena) Utilization() float64 {
	capacity := a.Capacity()
	if capacity == 0 {
		return 0
	}
	return float64(a.SizeInUse()) / float64(capacity)
}

// ChunkSize returns the default chunk size used by this arena.
func (a *Arena) ChunkSize() int {
	return a.cfg.ChunkSize
}

// Limit returns the capacity cap of the arena, zero when unbounded.
func (a *Arena) Limit() int {
	return a.cfg.Limit
}

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() Metrics {
	return Metrics{
		SizeInUse:   a.SizeInUse(),
		Capacity:    a.Capacity(),
		NumChunks:   a.NumChunks(),
		ChunkSize:   a.ChunkSize(),
		Limit:       a.Limit(),
		Utilization: a.Utilization(),
	}
}

// Metrics contains statistical information about an arena.
type Metrics struct {
	SizeInUse   int     // Bytes currently allocated
	Capacity    int     // Total capacity in bytes
	NumChunks   int     // Number of chunks
	ChunkSize   int     // Default chunk size
	Limit       int     // Capacity cap, 0 when unbounded
	Utilization float64 // Ratio of used to total capacity (0.0-1.0)
}

func (m Metrics) String() string {
	limit := "unbounded"
	if m.Limit > 0 {
		limit = humanize.IBytes(uint64(m.Limit))
	}
	return fmt.Sprintf("in use %s of %s in %d chunks (%.1f%%), limit %s",
		humanize.IBytes(uint64(m.SizeInUse)), humanize.IBytes(uint64(m.Capacity)),
		m.NumChunks, m.Utilization*100, limit)
}

// Metered is implemented by allocators that can report Metrics.
type Metered interface {
	Metrics() Metrics
}

var _ Metered = (*Arena)(nil)
