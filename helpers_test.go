package rawalloc

import (
	"github.com/pkg/errors"
)

type request struct {
	size, align int
}

// recordingAllocator remembers every request it forwards to parent.
type recordingAllocator struct {
	parent RawAllocator
	allocs []request
	frees  []request
	blocks [][]byte
}

func newRecorder(parent RawAllocator) *recordingAllocator {
	return &recordingAllocator{parent: parent}
}

func (r *recordingAllocator) Allocate(size, align int) ([]byte, error) {
	r.allocs = append(r.allocs, request{size, align})
	b, err := r.parent.Allocate(size, align)
	if err == nil {
		r.blocks = append(r.blocks, b)
	}
	return b, err
}

func (r *recordingAllocator) Deallocate(b []byte, align int) {
	r.frees = append(r.frees, request{len(b), align})
	r.parent.Deallocate(b, align)
}

var errBoom = errors.New("boom")

// failingAllocator fails every request with err.
type failingAllocator struct {
	err   error
	calls int
}

func (f *failingAllocator) Allocate(size, align int) ([]byte, error) {
	f.calls++
	return nil, f.err
}

func (f *failingAllocator) Deallocate(b []byte, align int) {}

func mustArena(cfg Config) *Arena {
	a, err := NewArenaWithConfig(cfg)
	if err != nil {
		panic(err)
	}
	return a
}
