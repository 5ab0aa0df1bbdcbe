package rawalloc

import (
	"reflect"
	"unsafe"

	"github.com/JohnCGriffin/overflow"
	"github.com/pkg/errors"
)

// ContainerAllocator is the typed surface generic containers allocate
// element storage through.
type ContainerAllocator[T any] interface {
	// Allocate returns uninitialized storage for n elements.
	Allocate(n int) ([]T, error)
	// Deallocate releases storage returned by Allocate.
	Deallocate(s []T)
}

// Adaptor turns a RawAllocator into a ContainerAllocator for T. It borrows
// the backing allocator, which must outlive every slice handed out.
//
// T lives in raw memory and must not contain Go pointers.
type Adaptor[T any] struct {
	backing RawAllocator
}

// NewAdaptor returns an Adaptor for T over backing. It fails with
// ErrInvalidArgument when backing is nil or not comparable, or when T
// contains pointers.
func NewAdaptor[T any](backing RawAllocator) (Adaptor[T], error) {
	if backing == nil {
		return Adaptor[T]{}, errors.Wrap(ErrInvalidArgument, "adaptor: nil backing allocator")
	}
	if bt := reflect.TypeOf(backing); !bt.Comparable() {
		return Adaptor[T]{}, errors.Wrapf(ErrInvalidArgument, "adaptor: backing allocator %s is not comparable", bt)
	}
	if t := reflect.TypeFor[T](); !pointerFree(t) {
		return Adaptor[T]{}, errors.Wrapf(ErrInvalidArgument, "adaptor: element type %s holds pointers", t)
	}
	return Adaptor[T]{backing: backing}, nil
}

// Rebind returns an adaptor for U sharing a's backing allocator.
func Rebind[U, T any](a Adaptor[T]) (Adaptor[U], error) {
	return NewAdaptor[U](a.backing)
}

// Backing returns the borrowed allocator.
func (a Adaptor[T]) Backing() RawAllocator { return a.backing }

// Equal reports whether memory allocated through a can be released through
// other, that is whether both share the same backing allocator.
func (a Adaptor[T]) Equal(other interface{ Backing() RawAllocator }) bool {
	if other == nil {
		return false
	}
	ob := other.Backing()
	if ob == nil || a.backing == nil || !reflect.TypeOf(ob).Comparable() {
		return false
	}
	return a.backing == ob
}

// Allocate returns a slice of n elements with len == cap == n. The memory
// is not initialized. Zero n yields a nil slice; a byte count overflowing int
// fails with ErrLength before the backing allocator is called.
func (a Adaptor[T]) Allocate(n int) ([]T, error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "adaptor: negative count %d", n)
	}
	if n == 0 {
		return nil, nil
	}
	var zero T
	size, align := int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero))
	if size == 0 {
		return make([]T, n), nil
	}
	bytes, ok := overflow.Mul(n, size)
	if !ok {
		return nil, errors.Wrapf(ErrLength, "adaptor: %d elements of %d bytes", n, size)
	}
	b, err := a.backing.Allocate(bytes, align)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n), nil
}

// Deallocate returns storage obtained from Allocate. The whole capacity of
// s is released, so containers may reslice freely before handing it back.
func (a Adaptor[T]) Deallocate(s []T) {
	var zero T
	size, align := int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero))
	if cap(s) == 0 || size == 0 {
		return
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), cap(s)*size)
	a.backing.Deallocate(b, align)
}

var _ ContainerAllocator[int64] = Adaptor[int64]{}
