package rawalloc

import (
	"sync"
)

// SafeAllocator is a mutex-protected wrapper around any RawAllocator for
// concurrent access. All operations are thread-safe but come with the
// overhead of mutex locking.
//
// Affix, Fallback and Adaptor never lock; wrap the shared backing allocator
// (or the composed stack) in a SafeAllocator when several goroutines use it.
type SafeAllocator struct {
	mu sync.Mutex
	a  RawAllocator
}

// NewSafeAllocator wraps a for concurrent use.
func NewSafeAllocator(a RawAllocator) *SafeAllocator {
	return &SafeAllocator{a: a}
}

// NewSafeArena creates a new thread-safe arena with the specified chunk size.
// If chunkSize <= 0, DefaultChunkSize is used.
func NewSafeArena(chunkSize int) *SafeAllocator {
	return NewSafeAllocator(NewArena(chunkSize))
}

// Allocate thread-safely allocates size bytes at align.
func (s *SafeAllocator) Allocate(size, align int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Allocate(size, align)
}

// Deallocate thread-safely returns b to the wrapped allocator.
func (s *SafeAllocator) Deallocate(b []byte, align int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Deallocate(b, align)
}

// Owns thread-safely reports ownership when the wrapped allocator is an Owner.
func (s *SafeAllocator) Owns(b []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.a.(Owner); ok {
		return o.Owns(b)
	}
	return false
}

// Metrics thread-safely returns a snapshot of the wrapped allocator's
// statistics, or the zero Metrics when it does not report any.
func (s *SafeAllocator) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.a.(Metered); ok {
		return m.Metrics()
	}
	return Metrics{}
}

// Do runs fn with the lock held, for compound operations such as
// resetting an arena.
func (s *SafeAllocator) Do(fn func(a RawAllocator)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.a)
}

var (
	_ RawAllocator = (*SafeAllocator)(nil)
	_ Owner        = (*SafeAllocator)(nil)
	_ Metered      = (*SafeAllocator)(nil)
)
