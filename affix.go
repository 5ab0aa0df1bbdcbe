package rawalloc

import (
	"reflect"
	"unsafe"

	"github.com/JohnCGriffin/overflow"
	"github.com/pkg/errors"

	"github.com/pavanmanishd/rawalloc/internal/debug"
)

// Affix decorates a parent allocator with a fixed-size P stored right before
// every block and a fixed-size S stored right after it. Use struct{} for a
// side that carries nothing; with both sides empty Affix forwards requests
// to its parent unchanged.
//
// A backing block is laid out as
//
//	[P, padded to align][user region][padding][S]
//
// so the handle returned to the caller sits Offset(align) bytes past the
// block base and the base can be recovered from the handle alone.
//
// P and S live in raw memory and must not contain Go pointers.
type Affix[P, S any] struct {
	parent RawAllocator

	prefixSize, prefixAlign int
	suffixSize, suffixAlign int
}

// affixLayout describes one backing block.
type affixLayout struct {
	align     int // alignment requested from the parent
	offset    int // handle - base
	suffixOff int
	total     int
}

// NewAffix wraps parent. It fails with ErrInvalidArgument when parent is
// nil or P or S contain pointers.
func NewAffix[P, S any](parent RawAllocator) (*Affix[P, S], error) {
	if parent == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "affix: nil parent")
	}
	pt, st := reflect.TypeFor[P](), reflect.TypeFor[S]()
	if !pointerFree(pt) {
		return nil, errors.Wrapf(ErrInvalidArgument, "affix: prefix type %s holds pointers", pt)
	}
	if !pointerFree(st) {
		return nil, errors.Wrapf(ErrInvalidArgument, "affix: suffix type %s holds pointers", st)
	}
	var (
		p P
		s S
	)
	return &Affix[P, S]{
		parent:      parent,
		prefixSize:  int(unsafe.Sizeof(p)),
		prefixAlign: int(unsafe.Alignof(p)),
		suffixSize:  int(unsafe.Sizeof(s)),
		suffixAlign: int(unsafe.Alignof(s)),
	}, nil
}

// Parent returns the decorated allocator.
func (a *Affix[P, S]) Parent() RawAllocator { return a.parent }

func (a *Affix[P, S]) layout(size, align int) (affixLayout, error) {
	l := affixLayout{align: align, total: size}
	if a.prefixSize == 0 && a.suffixSize == 0 {
		return l, nil
	}

	var ok bool
	if a.prefixSize > 0 {
		l.align = max(l.align, a.prefixAlign)
		l.offset = AlignUp(a.prefixSize, align)
		if l.total, ok = overflow.Add(l.offset, size); !ok {
			return l, errors.Wrapf(ErrLength, "affix: %d byte prefix plus %d bytes", l.offset, size)
		}
	}
	if a.suffixSize > 0 {
		l.align = max(l.align, a.suffixAlign)
		step := max(align, a.suffixAlign)
		var padded int
		if padded, ok = overflow.Add(l.total, step-1); !ok {
			return l, errors.Wrapf(ErrLength, "affix: %d bytes plus suffix", l.total)
		}
		l.suffixOff = padded &^ (step - 1)
		if l.total, ok = overflow.Add(l.suffixOff, a.suffixSize); !ok {
			return l, errors.Wrapf(ErrLength, "affix: %d bytes plus suffix", l.suffixOff)
		}
	}
	return l, nil
}

// Allocate requests a block holding the prefix, size bytes and the suffix
// from the parent, writes zero P and S values into it and returns the user
// region. Parent failures are returned unchanged.
func (a *Affix[P, S]) Allocate(size, align int) ([]byte, error) {
	align, err := ValidateRequest(size, align)
	if err != nil {
		return nil, err
	}
	l, err := a.layout(size, align)
	if err != nil {
		return nil, err
	}
	block, err := a.parent.Allocate(l.total, l.align)
	if err != nil {
		return nil, err
	}
	debug.Assert(len(block) == l.total && IsAligned(block, l.align), "affix: parent returned a short or misaligned block")

	if a.prefixSize > 0 {
		var zero P
		*at[P](block, 0) = zero
	}
	if a.suffixSize > 0 {
		var zero S
		*at[S](block, l.suffixOff) = zero
	}
	end := l.offset + size
	return block[l.offset:end:end], nil
}

// Deallocate recovers the backing block of b, clears its metadata and hands
// the block back to the parent.
func (a *Affix[P, S]) Deallocate(b []byte, align int) {
	align, err := normalizeAlign(align)
	debug.Assert(err == nil, "affix: deallocate with invalid alignment")
	l, err := a.layout(len(b), align)
	debug.Assert(err == nil, "affix: deallocate of a region it could not have allocated")
	debug.Assert(IsAligned(b, align), "affix: handle does not match the alignment")

	block := rewind(b, l.offset, l.total)
	clear(block[:l.offset])
	clear(block[l.offset+len(b):])
	a.parent.Deallocate(block, l.align)
}

// Base returns the backing block of the handle b allocated at align.
func (a *Affix[P, S]) Base(b []byte, align int) []byte {
	align, _ = normalizeAlign(align)
	l, _ := a.layout(len(b), align)
	return rewind(b, l.offset, l.total)
}

// Offset returns the distance in bytes between a block base and the handle
// for requests made at align. It only depends on the prefix and align.
func (a *Affix[P, S]) Offset(align int) int {
	if a.prefixSize == 0 {
		return 0
	}
	align, _ = normalizeAlign(align)
	return AlignUp(a.prefixSize, align)
}

// Prefix returns the P stored before the handle b, or nil when P is empty.
func (a *Affix[P, S]) Prefix(b []byte, align int) *P {
	if a.prefixSize == 0 {
		return nil
	}
	return at[P](a.Base(b, align), 0)
}

// Suffix returns the S stored after the handle b, or nil when S is empty.
func (a *Affix[P, S]) Suffix(b []byte, align int) *S {
	if a.suffixSize == 0 {
		return nil
	}
	align, _ = normalizeAlign(align)
	l, _ := a.layout(len(b), align)
	return at[S](rewind(b, l.offset, l.total), l.suffixOff)
}

var _ RawAllocator = (*Affix[uint64, struct{}])(nil)
