// Package rawalloc provides composable raw-memory allocators for Go.
//
// # Overview
//
// Every layer implements the same small contract, RawAllocator:
//
//	Allocate(size, align int) ([]byte, error)
//	Deallocate(b []byte, align int)
//
// Layers wrap other layers, so allocation strategies are assembled from a few
// building blocks without touching the code that consumes them:
//
//   - Affix stores fixed-size metadata before and after every block
//   - Fallback tries several allocators in order
//   - Adaptor exposes any RawAllocator as a typed ContainerAllocator
//
// Leaf allocators to compose over are included:
//
//   - Arena, a chunked bump allocator with an optional capacity limit
//   - HeapAllocator (System), backed by the Go heap
//   - PageAllocator, backed by anonymous memory mappings
//
// # Basic Usage
//
//	small, _ := rawalloc.NewArenaWithConfig(rawalloc.Config{ChunkSize: 4096, Limit: 1 << 20})
//	stack, _ := rawalloc.NewFallback(small, rawalloc.System)
//
//	// Allocate raw bytes
//	buf, err := stack.Allocate(256, 16)
//	if err != nil {
//	    return err
//	}
//	defer stack.Deallocate(buf, 16)
//
//	// Allocate typed storage
//	ints, _ := rawalloc.NewAdaptor[int64](stack)
//	s, err := ints.Allocate(100)
//
// # Handles
//
// A block is returned as a []byte with len == cap == size. It must be handed
// back unchanged, with the alignment used to allocate it, to the layer that
// produced it. Zero alignment selects DefaultAlignment.
//
// Blocks are raw memory the garbage collector does not scan for pointers:
// never store Go pointers in them. Affix and Adaptor reject metadata and
// element types that contain pointers.
//
// # Errors
//
// Failures wrap one of ErrOutOfMemory, ErrInvalidArgument or ErrLength and
// are matched with errors.Is. No layer retries or swallows them.
//
// Deallocation misuse (wrong size or alignment, double free, foreign block)
// is a caller error. Building with the debug tag turns on assertions that
// panic on it; CheckedAllocator detects it in tests.
//
// # Thread Safety
//
// No layer synchronizes. HeapAllocator and PageAllocator are safe for
// concurrent use; for anything else wrap the shared allocator in a
// SafeAllocator:
//
//	shared := rawalloc.NewSafeArena(0)
//
// # Logging
//
// Slow-path events such as arena growth and fallback exhaustion are logged
// through log/slog once SetLogger is called.
package rawalloc
