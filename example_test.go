package rawalloc_test

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/pavanmanishd/rawalloc"
)

// Example composes a bounded arena with the heap as overflow.
func Example() {
	small, err := rawalloc.NewArenaWithConfig(rawalloc.Config{ChunkSize: 1024, Limit: 1024})
	if err != nil {
		panic(err)
	}
	stack, err := rawalloc.NewFallback(small, rawalloc.System)
	if err != nil {
		panic(err)
	}

	for _, size := range []int{100, 500, 2000} {
		b, i, err := stack.AllocateIndex(size, 16)
		if err != nil {
			panic(err)
		}
		fmt.Printf("%d bytes from allocator %d\n", len(b), i)
		defer stack.Deallocate(b, 16)
	}

	// Output:
	// 100 bytes from allocator 0
	// 500 bytes from allocator 0
	// 2000 bytes from allocator 1
}

// refHeader is kept in front of every block of a reference-counted pool.
type refHeader struct {
	refs uint32
	size uint32
}

func ExampleAffix() {
	pool, err := rawalloc.NewAffix[refHeader, struct{}](rawalloc.NewArena(4096))
	if err != nil {
		panic(err)
	}

	b, err := pool.Allocate(48, 8)
	if err != nil {
		panic(err)
	}
	h := pool.Prefix(b, 8)
	h.refs, h.size = 1, uint32(len(b))

	h.refs++ // shared
	fmt.Printf("refs=%d size=%d offset=%d\n", pool.Prefix(b, 8).refs, h.size, pool.Offset(8))

	release := func() {
		if h.refs--; h.refs == 0 {
			pool.Deallocate(b, 8)
			fmt.Println("released")
		}
	}
	release()
	release()

	// Output:
	// refs=2 size=48 offset=8
	// released
}

func ExampleFallback_AllocateIndex() {
	full, _ := rawalloc.NewArenaWithConfig(rawalloc.Config{ChunkSize: 64, Limit: 64})
	stack, _ := rawalloc.NewUntaggedFallback(full)

	_, i, err := stack.AllocateIndex(128, 8)
	fmt.Println(i, errors.Is(err, rawalloc.ErrOutOfMemory))

	// Output:
	// -1 true
}

// vector is a growable sequence whose storage comes from a
// ContainerAllocator.
type vector[T any] struct {
	alloc rawalloc.ContainerAllocator[T]
	items []T
}

func (v *vector[T]) push(x T) error {
	if len(v.items) == cap(v.items) {
		grown, err := v.alloc.Allocate(max(4, 2*cap(v.items)))
		if err != nil {
			return err
		}
		n := copy(grown, v.items)
		v.alloc.Deallocate(v.items)
		v.items = grown[:n]
	}
	v.items = append(v.items, x)
	return nil
}

func (v *vector[T]) free() {
	v.alloc.Deallocate(v.items)
	v.items = nil
}

func ExampleAdaptor() {
	arena := rawalloc.NewArena(4096)
	ints, err := rawalloc.NewAdaptor[int32](arena)
	if err != nil {
		panic(err)
	}

	v := &vector[int32]{alloc: ints}
	for i := int32(1); i <= 10; i++ {
		if err := v.push(i * i); err != nil {
			panic(err)
		}
	}
	fmt.Println(v.items, cap(v.items))
	v.free()

	// Output:
	// [1 4 9 16 25 36 49 64 81 100] 16
}

func ExampleArena_Metrics() {
	a, _ := rawalloc.NewArenaWithConfig(rawalloc.Config{ChunkSize: 1024, Limit: 4096})
	defer a.Release()

	_, _ = a.Allocate(100, 8)
	_, _ = a.Allocate(200, 8)
	fmt.Println(a.Metrics())

	a.Reset()
	fmt.Println(a.Metrics())

	// Output:
	// in use 304 B of 1.0 KiB in 1 chunks (29.7%), limit 4.0 KiB
	// in use 0 B of 1.0 KiB in 1 chunks (0.0%), limit 4.0 KiB
}

func ExampleSafeAllocator() {
	shared := rawalloc.NewSafeArena(1 << 16)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 8; i++ {
				if _, err := shared.Allocate(32, 8); err != nil {
					panic(err)
				}
			}
		}()
	}
	wg.Wait()
	fmt.Println(shared.Metrics().SizeInUse)

	// Output:
	// 1024
}
