//go:build !unix

package rawalloc

import "github.com/pkg/errors"

// PageAllocator falls back to the Go heap on platforms without mmap.
// Blocks are still aligned to PageSize.
type PageAllocator struct {
	pageSize int
	heap     HeapAllocator
}

// NewPageAllocator returns a page allocator aligned to 4 KiB pages.
func NewPageAllocator() *PageAllocator {
	return &PageAllocator{pageSize: 4096}
}

// PageSize returns the alignment blocks are given.
func (p *PageAllocator) PageSize() int { return p.pageSize }

// Allocate returns page aligned heap memory for size bytes.
func (p *PageAllocator) Allocate(size, align int) ([]byte, error) {
	align, err := normalizeAlign(align)
	if err != nil {
		return nil, err
	}
	if align > p.pageSize {
		return nil, errors.Wrapf(ErrInvalidArgument, "pages: alignment %d exceeds page size %d", align, p.pageSize)
	}
	return p.heap.Allocate(size, p.pageSize)
}

// Deallocate leaves b to the garbage collector.
func (p *PageAllocator) Deallocate(b []byte, align int) {}

var _ RawAllocator = (*PageAllocator)(nil)
