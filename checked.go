package rawalloc

import (
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// CheckedAllocator wraps a RawAllocator and records every outstanding
// block together with the call site that allocated it. Deallocations of
// unknown blocks or with a size or alignment different from the allocation
// are counted as misuse instead of being forwarded. It is meant for tests
// hunting leaks and contract violations; it is safe for concurrent use as
// long as the wrapped allocator is.
type CheckedAllocator struct {
	mem    RawAllocator
	sz     int64
	misuse int64

	allocs sync.Map
}

type dalloc struct {
	pc    uintptr
	line  int
	sz    int
	align int
}

func NewCheckedAllocator(mem RawAllocator) *CheckedAllocator {
	return &CheckedAllocator{mem: mem}
}

// CurrentAlloc returns the number of bytes outstanding.
func (a *CheckedAllocator) CurrentAlloc() int { return int(atomic.LoadInt64(&a.sz)) }

// Misuse returns the number of rejected deallocations.
func (a *CheckedAllocator) Misuse() int { return int(atomic.LoadInt64(&a.misuse)) }

func (a *CheckedAllocator) Allocate(size, align int) ([]byte, error) {
	out, err := a.mem.Allocate(size, align)
	if err != nil {
		return nil, err
	}
	align, _ = normalizeAlign(align)
	atomic.AddInt64(&a.sz, int64(size))
	info := &dalloc{sz: size, align: align}
	if pc, _, l, ok := runtime.Caller(allocFrames); ok {
		info.pc, info.line = pc, l
	}
	a.allocs.Store(addressOf(out), info)
	return out, nil
}

func (a *CheckedAllocator) Deallocate(b []byte, align int) {
	align, _ = normalizeAlign(align)
	v, ok := a.allocs.Load(addressOf(b))
	if !ok {
		atomic.AddInt64(&a.misuse, 1)
		return
	}
	info := v.(*dalloc)
	if info.sz != len(b) || info.align != align {
		atomic.AddInt64(&a.misuse, 1)
		return
	}
	if _, loaded := a.allocs.LoadAndDelete(addressOf(b)); !loaded {
		atomic.AddInt64(&a.misuse, 1)
		return
	}
	atomic.AddInt64(&a.sz, int64(-len(b)))
	a.mem.Deallocate(b, align)
}

// Owns reports whether b is an outstanding block of this allocator.
func (a *CheckedAllocator) Owns(b []byte) bool {
	_, ok := a.allocs.Load(addressOf(b))
	return ok
}

// Use the environment variable RAWALLOC_CHECKED_ALLOC_FRAMES to control how
// many frames up the call site of an allocation is taken from.
var allocFrames = 1

func init() {
	if val, ok := os.LookupEnv("RAWALLOC_CHECKED_ALLOC_FRAMES"); ok {
		if f, err := strconv.Atoi(val); err == nil {
			allocFrames = f
		}
	}
}

type TestingT interface {
	Errorf(format string, args ...interface{})
	Helper()
}

// AssertSize reports every leaked block and fails t unless exactly sz bytes
// are outstanding and no deallocation was rejected.
func (a *CheckedAllocator) AssertSize(t TestingT, sz int) {
	t.Helper()
	a.allocs.Range(func(_, value interface{}) bool {
		info := value.(*dalloc)
		name := "unknown"
		if f := runtime.FuncForPC(info.pc); f != nil {
			name = f.Name()
		}
		t.Errorf("LEAK of %d bytes FROM %s line %d\n", info.sz, name, info.line)
		return true
	})

	if got := a.CurrentAlloc(); got != sz {
		t.Errorf("invalid memory size exp=%d, got=%d", sz, got)
	}
	if n := a.Misuse(); n != 0 {
		t.Errorf("%d invalid deallocations", n)
	}
}

// CheckedAllocatorScope remembers the outstanding size at creation so a
// test section can verify it releases everything it allocates.
type CheckedAllocatorScope struct {
	alloc *CheckedAllocator
	sz    int
}

func NewCheckedAllocatorScope(alloc *CheckedAllocator) *CheckedAllocatorScope {
	return &CheckedAllocatorScope{alloc: alloc, sz: alloc.CurrentAlloc()}
}

func (c *CheckedAllocatorScope) CheckSize(t TestingT) {
	if sz := c.alloc.CurrentAlloc(); c.sz != sz {
		t.Helper()
		t.Errorf("invalid memory size exp=%d, got=%d", c.sz, sz)
	}
}

var (
	_ RawAllocator = (*CheckedAllocator)(nil)
	_ Owner        = (*CheckedAllocator)(nil)
)
