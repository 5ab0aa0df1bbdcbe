//go:build unix

package rawalloc

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// PageAllocator serves every request with its own anonymous private
// mapping. Blocks are page aligned, so any alignment up to the page size is
// honoured. Deallocate unmaps the block.
//
// PageAllocator is safe to use from multiple goroutines.
type PageAllocator struct {
	pageSize int
}

// NewPageAllocator returns a page allocator using the system page size.
func NewPageAllocator() *PageAllocator {
	return &PageAllocator{pageSize: unix.Getpagesize()}
}

// PageSize returns the granularity of the mappings.
func (p *PageAllocator) PageSize() int { return p.pageSize }

// Allocate maps enough pages for size bytes. align may not exceed the page
// size; a failed mapping is ErrOutOfMemory.
func (p *PageAllocator) Allocate(size, align int) ([]byte, error) {
	align, err := ValidateRequest(size, align)
	if err != nil {
		return nil, err
	}
	if align > p.pageSize {
		return nil, errors.Wrapf(ErrInvalidArgument, "pages: alignment %d exceeds page size %d", align, p.pageSize)
	}
	if size > math.MaxInt-p.pageSize {
		return nil, errors.Wrapf(ErrLength, "pages: request of %d bytes", size)
	}
	length := AlignUp(size, p.pageSize)
	data, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		logger().Warn("mmap failed", "bytes", length, "err", err)
		return nil, errors.Wrapf(ErrOutOfMemory, "pages: mapping %d bytes: %v", length, err)
	}
	return data[:size:size], nil
}

// Deallocate unmaps the pages holding b.
func (p *PageAllocator) Deallocate(b []byte, align int) {
	if len(b) == 0 {
		return
	}
	// Munmap wants the exact slice Mmap returned.
	whole := rewind(b, 0, AlignUp(len(b), p.pageSize))
	if err := unix.Munmap(whole); err != nil {
		logger().Warn("munmap failed", "bytes", len(whole), "err", err)
	}
}

var _ RawAllocator = (*PageAllocator)(nil)
