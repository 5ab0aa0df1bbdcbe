package rawalloc

import (
	"github.com/JohnCGriffin/overflow"
	"github.com/pkg/errors"
)

// HeapAllocator allocates from the Go heap. Blocks are aligned by padding
// the underlying allocation and shifting into it; Deallocate leaves the
// block to the garbage collector.
//
// HeapAllocator is safe to use from multiple goroutines.
type HeapAllocator struct{}

// System is the shared heap allocator.
var System RawAllocator = NewHeapAllocator()

// NewHeapAllocator returns a heap allocator. All instances behave alike.
func NewHeapAllocator() *HeapAllocator { return &HeapAllocator{} }

// Allocate returns size bytes aligned to align from a padded heap slice.
// Requests the runtime cannot serve fail with ErrOutOfMemory.
func (h *HeapAllocator) Allocate(size, align int) ([]byte, error) {
	align, err := ValidateRequest(size, align)
	if err != nil {
		return nil, err
	}
	n, ok := overflow.Add(size, align-1)
	if !ok {
		return nil, errors.Wrapf(ErrLength, "heap: request of %d bytes at alignment %d", size, align)
	}
	if n > maxAlloc {
		return nil, errors.Wrapf(ErrOutOfMemory, "heap: request of %d bytes exceeds %d", size, maxAlloc)
	}
	buf := make([]byte, n)
	addr := addressOf(buf)
	shift := int(alignAddr(addr, align) - addr)
	return buf[shift : shift+size : shift+size], nil
}

// Deallocate is a no-op; the garbage collector reclaims the block.
func (h *HeapAllocator) Deallocate(b []byte, align int) {}
