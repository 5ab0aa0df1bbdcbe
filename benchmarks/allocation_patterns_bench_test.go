package rawalloc_test

import (
	"fmt"
	"testing"

	"github.com/pavanmanishd/rawalloc"
)

// BenchmarkSmallAllocations measures each leaf allocator on small blocks
// that are handed back right away
func BenchmarkSmallAllocations(b *testing.B) {
	sizes := []int{8, 16, 32, 64}

	leaves := map[string]func() rawalloc.RawAllocator{
		"Arena": func() rawalloc.RawAllocator { return rawalloc.NewArena(64 * 1024) },
		"Heap":  func() rawalloc.RawAllocator { return rawalloc.NewHeapAllocator() },
	}
	for _, size := range sizes {
		for name, leaf := range leaves {
			b.Run(fmt.Sprintf("%s_%dB", name, size), func(b *testing.B) {
				a := leaf()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					buf, _ := a.Allocate(size, 8)
					a.Deallocate(buf, 8)
				}
			})
		}

		b.Run(fmt.Sprintf("Builtin_%dB", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = make([]byte, size)
			}
		})
	}
}

// BenchmarkPageAllocations tests page sized requests
func BenchmarkPageAllocations(b *testing.B) {
	pages := rawalloc.NewPageAllocator()
	for _, n := range []int{1, 4, 16} {
		size := n * pages.PageSize()
		b.Run(fmt.Sprintf("Page_%dpages", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				buf, err := pages.Allocate(size, 0)
				if err != nil {
					b.Fatal(err)
				}
				pages.Deallocate(buf, 0)
			}
		})
		b.Run(fmt.Sprintf("Heap_%dpages", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				buf, _ := rawalloc.System.Allocate(size, pages.PageSize())
				rawalloc.System.Deallocate(buf, pages.PageSize())
			}
		})
	}
}

type header struct {
	refs  uint32
	flags uint32
}

// BenchmarkLayerOverhead measures what each decorator adds on top of an arena
func BenchmarkLayerOverhead(b *testing.B) {
	const size, align = 48, 16

	run := func(b *testing.B, a rawalloc.RawAllocator) {
		for i := 0; i < b.N; i++ {
			buf, err := a.Allocate(size, align)
			if err != nil {
				b.Fatal(err)
			}
			a.Deallocate(buf, align)
		}
	}

	b.Run("Arena", func(b *testing.B) {
		run(b, rawalloc.NewArena(64*1024))
	})

	b.Run("Affix", func(b *testing.B) {
		a, _ := rawalloc.NewAffix[header, uint64](rawalloc.NewArena(64 * 1024))
		run(b, a)
	})

	b.Run("Fallback_Tagged", func(b *testing.B) {
		f, _ := rawalloc.NewFallback(rawalloc.NewArena(64*1024), rawalloc.System)
		run(b, f)
	})

	b.Run("Fallback_Untagged", func(b *testing.B) {
		f, _ := rawalloc.NewUntaggedFallback(rawalloc.NewArena(64*1024), rawalloc.System)
		run(b, f)
	})

	b.Run("Fallback_Spill", func(b *testing.B) {
		full, _ := rawalloc.NewArenaWithConfig(rawalloc.Config{ChunkSize: 64, Limit: 64})
		f, _ := rawalloc.NewFallback(full, rawalloc.System)
		run(b, f)
	})

	b.Run("Checked", func(b *testing.B) {
		run(b, rawalloc.NewCheckedAllocator(rawalloc.NewArena(64*1024)))
	})
}

// BenchmarkTypedAllocations compares Adaptor backed slices with make
func BenchmarkTypedAllocations(b *testing.B) {
	type point struct{ x, y, z float64 }

	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("Adaptor_%d", n), func(b *testing.B) {
			arena := rawalloc.NewArena(1024 * 1024)
			points, _ := rawalloc.NewAdaptor[point](arena)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				s, err := points.Allocate(n)
				if err != nil {
					b.Fatal(err)
				}
				s[n-1].x = float64(i)
				if i%100 == 99 {
					arena.Reset()
				}
			}
		})

		b.Run(fmt.Sprintf("Builtin_%d", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				s := make([]point, n)
				s[n-1].x = float64(i)
			}
		})
	}
}

// BenchmarkBatchAllocations allocates many blocks per round and reclaims
// them with a single Reset
func BenchmarkBatchAllocations(b *testing.B) {
	b.Run("Arena", func(b *testing.B) {
		a := rawalloc.NewArena(64 * 1024)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			for j := 0; j < 100; j++ {
				_, _ = a.Allocate(64, 8)
			}
			a.Reset()
		}
	})

	b.Run("Stack", func(b *testing.B) {
		a := rawalloc.NewArena(64 * 1024)
		headed, _ := rawalloc.NewAffix[header, struct{}](a)
		stack, _ := rawalloc.NewFallback(headed, rawalloc.System)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			for j := 0; j < 100; j++ {
				_, _ = stack.Allocate(64, 8)
			}
			a.Reset()
		}
	})

	b.Run("Builtin", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			objects := make([][]byte, 100)
			for j := range objects {
				objects[j] = make([]byte, 64)
			}
		}
	})
}
