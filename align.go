package rawalloc

import (
	"math"
	"reflect"
	"unsafe"
)

// maxAlloc is the largest byte slice the heap-backed allocators will ask the
// runtime for. make panics well below math.MaxInt on 64-bit platforms.
const maxAlloc = min(1<<47, math.MaxInt)

// IsPowerOfTwo reports whether v is a positive power of two.
func IsPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

// AlignUp rounds v up to the next multiple of align, which must be a power of two.
func AlignUp(v, align int) int {
	mask := align - 1
	return (v + mask) &^ mask
}

// IsAligned reports whether the first byte of b is aligned to align.
func IsAligned(b []byte, align int) bool {
	if len(b) == 0 {
		return false
	}
	return addressOf(b)&uintptr(align-1) == 0
}

func addressOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

func alignAddr(addr uintptr, align int) uintptr {
	mask := uintptr(align - 1)
	return (addr + mask) &^ mask
}

// rewind returns the total-byte block that starts back bytes before b.
// b must have been carved out of such a block at that offset.
func rewind(b []byte, back, total int) []byte {
	base := unsafe.Add(unsafe.Pointer(unsafe.SliceData(b)), -back)
	return unsafe.Slice((*byte)(base), total)
}

// at reinterprets the bytes of b starting at off as a *T.
func at[T any](b []byte, off int) *T {
	return (*T)(unsafe.Pointer(&b[off]))
}

// contains reports whether inner lies entirely within outer.
func contains(outer, inner []byte) bool {
	if len(outer) == 0 || len(inner) == 0 {
		return false
	}
	lo, hi := addressOf(outer), addressOf(outer)+uintptr(len(outer))
	p := addressOf(inner)
	return p >= lo && p+uintptr(len(inner)) <= hi
}

// pointerFree reports whether values of t hold no Go pointers, so they may
// live in raw byte regions the garbage collector does not scan.
func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || pointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
