package rawalloc

import (
	"github.com/goccy/go-json"
	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"
)

// DefaultChunkSize is the default chunk size for new arenas (64 KiB).
const DefaultChunkSize = 1 << 16

// Config controls how an Arena obtains and bounds its chunks.
type Config struct {
	// ChunkSize is the size of each chunk. Values <= 0 select DefaultChunkSize.
	ChunkSize int `json:"chunk_size"`

	// Limit caps the total bytes of chunk memory. Zero means unbounded.
	// When Limit is smaller than ChunkSize the chunk size is clipped to it.
	Limit int `json:"limit"`

	// ChunkAlign aligns the base of every chunk. Zero selects the CPU
	// cache line size.
	ChunkAlign int `json:"chunk_align"`
}

// DefaultConfig returns the configuration NewArena(0) uses.
func DefaultConfig() Config {
	return Config{
		ChunkSize:  DefaultChunkSize,
		ChunkAlign: cacheLine(),
	}
}

// LoadConfig decodes a JSON document over DefaultConfig and validates it.
//
//	{"chunk_size": 4096, "limit": 1048576}
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "rawalloc: decoding config")
	}
	return cfg.normalize()
}

func (c Config) normalize() (Config, error) {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkAlign == 0 {
		c.ChunkAlign = cacheLine()
	}
	if !IsPowerOfTwo(c.ChunkAlign) {
		return Config{}, errors.Wrapf(ErrInvalidArgument, "chunk alignment %d is not a power of two", c.ChunkAlign)
	}
	if c.Limit < 0 {
		return Config{}, errors.Wrapf(ErrInvalidArgument, "limit %d is negative", c.Limit)
	}
	if c.Limit > 0 && c.ChunkSize > c.Limit {
		c.ChunkSize = c.Limit
	}
	if c.ChunkSize > maxAlloc-c.ChunkAlign {
		return Config{}, errors.Wrapf(ErrInvalidArgument, "chunk size %d is too large", c.ChunkSize)
	}
	return c, nil
}

func cacheLine() int {
	if n := cpuid.CPU.CacheLine; n > 0 && IsPowerOfTwo(n) {
		return n
	}
	return 64
}
