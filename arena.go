package rawalloc

import (
	"github.com/JohnCGriffin/overflow"
	"github.com/pkg/errors"

	"github.com/pavanmanishd/rawalloc/internal/debug"
)

// chunk represents a single memory chunk within an arena.
type chunk struct {
	buf    []byte  // backing memory, base aligned to Config.ChunkAlign
	offset uintptr // allocation offset within buf
}

// undo records the most recent allocation so that deallocating it
// restores the arena exactly.
type undo struct {
	chunk  int     // -1 when there is nothing to undo
	cur    int     // current chunk before the allocation
	offset uintptr // chunk offset before the allocation
	start  uintptr
	size   int
	grew   bool // chunk was appended for this allocation
}

var noUndo = undo{chunk: -1}

// Arena is a chunked bump allocator implementing RawAllocator.
// Not goroutine-safe; wrap it in a SafeAllocator for concurrent access.
//
// Only the most recent allocation can be handed back individually; every
// other block is reclaimed by Reset or Release.
type Arena struct {
	chunks   []chunk
	cfg      Config
	cur      int
	capacity int
	last     undo
}

// NewArena creates a new unbounded Arena with the specified chunk size.
// If chunkSize <= 0, DefaultChunkSize is used.
func NewArena(chunkSize int) *Arena {
	cfg := DefaultConfig()
	cfg.ChunkSize = chunkSize
	a, err := NewArenaWithConfig(cfg)
	if err != nil {
		panic(err)
	}
	return a
}

// NewArenaWithConfig creates an Arena from cfg and grows its first chunk.
func NewArenaWithConfig(cfg Config) (*Arena, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	a := &Arena{cfg: cfg, last: noUndo}
	a.grow(cfg.ChunkSize)
	return a, nil
}

// Allocate carves size bytes aligned to align out of the current chunk,
// moving on to a later chunk or growing a new one when it does not fit.
func (a *Arena) Allocate(size, align int) ([]byte, error) {
	align, err := ValidateRequest(size, align)
	if err != nil {
		return nil, err
	}
	a.panicIfReleased()

	// Fast path: current chunk
	if b, ok := a.carve(a.cur, size, align); ok {
		return b, nil
	}
	return a.allocateSlow(size, align)
}

// allocateSlow handles allocation when the current chunk is full.
func (a *Arena) allocateSlow(size, align int) ([]byte, error) {
	prev := a.cur

	// Chunks past the current one are free again after a Reset.
	for i := a.cur + 1; i < len(a.chunks); i++ {
		if b, ok := a.carve(i, size, align); ok {
			a.cur = i
			a.last.cur = prev
			return b, nil
		}
	}

	if err := a.growFor(size, align); err != nil {
		return nil, err
	}
	b, ok := a.carve(a.cur, size, align)
	debug.Assert(ok, "arena: fresh chunk cannot hold its request")
	a.last.cur = prev
	a.last.grew = true
	return b, nil
}

// carve bumps chunk i by size bytes at the given alignment.
func (a *Arena) carve(i, size, align int) ([]byte, bool) {
	c := &a.chunks[i]
	base := addressOf(c.buf)
	off := alignAddr(base+c.offset, align) - base
	end := off + uintptr(size)
	if end > uintptr(len(c.buf)) {
		return nil, false
	}
	a.last = undo{chunk: i, cur: a.cur, offset: c.offset, start: base + off, size: size}
	c.offset = end
	return c.buf[off:end:end], true
}

// growFor appends a chunk able to hold size bytes at align, respecting
// the configured limit. It leaves the arena untouched on failure.
func (a *Arena) growFor(size, align int) error {
	need := size
	if align > a.cfg.ChunkAlign {
		var ok bool
		if need, ok = overflow.Add(size, align-a.cfg.ChunkAlign); !ok {
			return errors.Wrapf(ErrLength, "arena: request of %d bytes at alignment %d", size, align)
		}
	}
	n := max(a.cfg.ChunkSize, need)
	if a.cfg.Limit > 0 {
		room := a.cfg.Limit - a.capacity
		if need > room {
			return errors.Wrapf(ErrOutOfMemory, "arena: %d bytes requested, %d of limit %d left", size, room, a.cfg.Limit)
		}
		n = min(n, room)
	}
	raw, ok := overflow.Add(n, a.cfg.ChunkAlign)
	if !ok {
		return errors.Wrapf(ErrLength, "arena: chunk of %d bytes", n)
	}
	if raw > maxAlloc {
		return errors.Wrapf(ErrOutOfMemory, "arena: chunk of %d bytes exceeds %d", n, maxAlloc)
	}
	a.grow(n)
	a.cur = len(a.chunks) - 1
	return nil
}

// Deallocate returns b to the arena. Only the most recent allocation is
// reclaimed, including any chunk grown to serve it; other blocks stay in
// use until Reset.
func (a *Arena) Deallocate(b []byte, align int) {
	a.panicIfReleased()
	l := a.last
	if l.chunk < 0 || addressOf(b) != l.start || len(b) != l.size {
		debug.Assert(a.Owns(b), "arena: deallocating a region it does not own")
		return
	}
	debug.Assert(align == 0 || l.start&uintptr(align-1) == 0, "arena: deallocate alignment does not match the block")

	a.chunks[l.chunk].offset = l.offset
	if l.grew && l.chunk > 0 && l.chunk == len(a.chunks)-1 {
		a.capacity -= len(a.chunks[l.chunk].buf)
		a.chunks[l.chunk] = chunk{}
		a.chunks = a.chunks[:l.chunk]
	}
	a.cur = l.cur
	a.last = noUndo
}

// Owns reports whether b lies inside one of the arena's chunks.
func (a *Arena) Owns(b []byte) bool {
	for i := range a.chunks {
		if contains(a.chunks[i].buf, b) {
			return true
		}
	}
	return false
}

// EnsureCapacity ensures the current chunk has at least n free bytes at the
// default alignment. If not, it grows the arena with a new chunk.
func (a *Arena) EnsureCapacity(n int) error {
	a.panicIfReleased()
	if n <= 0 {
		return nil
	}
	c := &a.chunks[a.cur]
	base := addressOf(c.buf)
	off := alignAddr(base+c.offset, DefaultAlignment) - base
	if off+uintptr(n) <= uintptr(len(c.buf)) {
		return nil
	}
	if err := a.growFor(n, DefaultAlignment); err != nil {
		return err
	}
	a.last = noUndo
	return nil
}

// Reset resets allocation offsets to zero but keeps allocated chunks for reuse.
// Every block handed out so far becomes invalid.
func (a *Arena) Reset() {
	a.panicIfReleased()
	for i := range a.chunks {
		a.chunks[i].offset = 0
	}
	a.cur = 0
	a.last = noUndo
}

// Release drops all chunks and makes the arena unusable.
// Any subsequent operations will panic.
func (a *Arena) Release() {
	a.chunks = nil
	a.cur = 0
	a.capacity = 0
	a.last = noUndo
}

// grow appends a new chunk of n bytes whose base is aligned to ChunkAlign.
func (a *Arena) grow(n int) {
	raw := make([]byte, n+a.cfg.ChunkAlign)
	addr := addressOf(raw)
	shift := int(alignAddr(addr, a.cfg.ChunkAlign) - addr)
	a.chunks = append(a.chunks, chunk{buf: raw[shift : shift+n : shift+n]})
	a.capacity += n
	if debugEnabled() {
		logger().Debug("arena grew", "chunk_bytes", n, "chunks", len(a.chunks), "capacity", a.capacity)
	}
}

// panicIfReleased panics if the arena has been released.
func (a *Arena) panicIfReleased() {
	if a.chunks == nil {
		panic("rawalloc: arena used after Release()")
	}
}

var (
	_ RawAllocator = (*Arena)(nil)
	_ Owner        = (*Arena)(nil)
)
