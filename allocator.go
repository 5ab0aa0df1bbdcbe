package rawalloc

import (
	"unsafe"

	"github.com/pkg/errors"
)

// DefaultAlignment is the alignment used when a caller passes align == 0.
// It is the pointer size, the largest alignment any fundamental Go type needs.
const DefaultAlignment = int(unsafe.Sizeof(uintptr(0)))

// RawAllocator is the contract every allocator layer satisfies.
//
// Allocate returns a region of exactly size bytes whose first byte is aligned
// to align, or an error wrapping ErrOutOfMemory when the backing resource is
// exhausted. The returned slice has len == cap == size and is never empty.
//
// Deallocate releases a region previously returned by Allocate on the same
// instance, passing the same slice and the same alignment. Mismatched
// parameters, foreign regions and double frees are caller errors: they are
// asserted in builds with the debug tag and unchecked otherwise.
//
// Implementations do not synchronize; see SafeAllocator.
type RawAllocator interface {
	Allocate(size, align int) ([]byte, error)
	Deallocate(b []byte, align int)
}

// Owner is implemented by allocators that can tell whether a region lies
// inside memory they manage.
type Owner interface {
	Owns(b []byte) bool
}

// ValidateRequest checks a (size, align) pair and returns the effective
// alignment, substituting DefaultAlignment for zero.
func ValidateRequest(size, align int) (int, error) {
	if size <= 0 {
		return 0, errors.Wrapf(ErrInvalidArgument, "size %d must be positive", size)
	}
	return normalizeAlign(align)
}

func normalizeAlign(align int) (int, error) {
	if align == 0 {
		return DefaultAlignment, nil
	}
	if !IsPowerOfTwo(align) {
		return 0, errors.Wrapf(ErrInvalidArgument, "alignment %d is not a power of two", align)
	}
	return align, nil
}
