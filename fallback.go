package rawalloc

import (
	"math"
	"slices"

	"github.com/pkg/errors"

	"github.com/pavanmanishd/rawalloc/internal/debug"
)

const fallbackMagic = 0xfa11

// fallbackTag is stamped in front of every block a tagged Fallback hands out.
type fallbackTag struct {
	magic uint16
	index uint16
}

// Fallback tries its children in order and serves each request from the
// first one that succeeds. Children are borrowed, never owned, and must
// outlive the Fallback and every block it returned.
//
// A Fallback built with NewFallback stamps the serving child's index in a
// small prefix of each block so Deallocate routes itself. One built with
// NewUntaggedFallback adds no bytes; its Deallocate can only route blocks of
// children implementing Owner, and callers otherwise keep the index returned
// by AllocateIndex and use DeallocateTo. Handing a block to the wrong child
// is a caller error.
type Fallback struct {
	children []RawAllocator
	stamped  []*Affix[fallbackTag, struct{}] // nil when untagged
}

// NewFallback returns a self-routing Fallback over children.
func NewFallback(children ...RawAllocator) (*Fallback, error) {
	f, err := newFallback(children)
	if err != nil {
		return nil, err
	}
	f.stamped = make([]*Affix[fallbackTag, struct{}], len(children))
	for i, c := range f.children {
		if f.stamped[i], err = NewAffix[fallbackTag, struct{}](c); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// NewUntaggedFallback returns a Fallback that forwards requests to its
// children byte for byte.
func NewUntaggedFallback(children ...RawAllocator) (*Fallback, error) {
	return newFallback(children)
}

func newFallback(children []RawAllocator) (*Fallback, error) {
	if len(children) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "fallback: no allocators")
	}
	if len(children) > math.MaxUint16 {
		return nil, errors.Wrapf(ErrInvalidArgument, "fallback: %d allocators", len(children))
	}
	for i, c := range children {
		if c == nil {
			return nil, errors.Wrapf(ErrInvalidArgument, "fallback: allocator %d is nil", i)
		}
	}
	return &Fallback{children: slices.Clone(children)}, nil
}

// Len returns the number of children.
func (f *Fallback) Len() int { return len(f.children) }

// Tagged reports whether blocks carry the serving child's index.
func (f *Fallback) Tagged() bool { return f.stamped != nil }

// Child returns the i-th child.
func (f *Fallback) Child(i int) RawAllocator { return f.children[i] }

func (f *Fallback) route(i int) RawAllocator {
	if f.stamped != nil {
		return f.stamped[i]
	}
	return f.children[i]
}

// Allocate serves the request from the first child that can.
func (f *Fallback) Allocate(size, align int) ([]byte, error) {
	b, _, err := f.AllocateIndex(size, align)
	return b, err
}

// AllocateIndex is Allocate that also returns the index of the serving child.
//
// A child failing with ErrOutOfMemory passes the request on; any other
// error is returned as is. When every child is exhausted the error wraps
// ErrOutOfMemory and no child has been changed.
func (f *Fallback) AllocateIndex(size, align int) ([]byte, int, error) {
	align, err := ValidateRequest(size, align)
	if err != nil {
		return nil, -1, err
	}
	for i := range f.children {
		b, err := f.route(i).Allocate(size, align)
		if err != nil {
			if errors.Is(err, ErrOutOfMemory) {
				continue
			}
			return nil, -1, err
		}
		if f.stamped != nil {
			*f.stamped[i].Prefix(b, align) = fallbackTag{magic: fallbackMagic, index: uint16(i)}
		}
		if i > 0 && debugEnabled() {
			logger().Debug("fallback spilled", "child", i, "bytes", size, "align", align)
		}
		return b, i, nil
	}
	logger().Warn("fallback exhausted", "children", len(f.children), "bytes", size, "align", align)
	return nil, -1, errors.Wrapf(ErrOutOfMemory, "fallback: all %d allocators failed for %d bytes", len(f.children), size)
}

// ChildOf returns the index of the child that served b, or -1 when it
// cannot tell. Tagged fallbacks read the stamp; untagged ones ask children
// implementing Owner.
func (f *Fallback) ChildOf(b []byte, align int) int {
	if len(b) == 0 {
		return -1
	}
	if f.stamped != nil {
		tag := f.stamped[0].Prefix(b, align)
		if tag.magic != fallbackMagic || int(tag.index) >= len(f.children) {
			return -1
		}
		return int(tag.index)
	}
	for i, c := range f.children {
		if o, ok := c.(Owner); ok && o.Owns(b) {
			return i
		}
	}
	return -1
}

// Deallocate hands b back to the child that served it. A block whose child
// cannot be determined is dropped for the garbage collector and asserted
// on in debug builds.
func (f *Fallback) Deallocate(b []byte, align int) {
	i := f.ChildOf(b, align)
	if i < 0 {
		debug.Assert(false, "fallback: cannot route deallocation; use DeallocateTo")
		return
	}
	f.route(i).Deallocate(b, align)
}

// DeallocateTo hands b back to child i, which must be the child that
// served it.
func (f *Fallback) DeallocateTo(i int, b []byte, align int) {
	debug.Assert(f.stamped == nil || f.ChildOf(b, align) == i, "fallback: block was served by another child")
	f.route(i).Deallocate(b, align)
}

// Owns reports whether any child owns b.
func (f *Fallback) Owns(b []byte) bool {
	for _, c := range f.children {
		if o, ok := c.(Owner); ok && o.Owns(b) {
			return true
		}
	}
	return false
}

var (
	_ RawAllocator = (*Fallback)(nil)
	_ Owner        = (*Fallback)(nil)
)
