package rawalloc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Zero(t, cfg.Limit)
	assert.True(t, IsPowerOfTwo(cfg.ChunkAlign))
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected Config
		err      error
	}{
		{
			name:     "overrides",
			doc:      `{"chunk_size": 4096, "limit": 1048576}`,
			expected: Config{ChunkSize: 4096, Limit: 1 << 20, ChunkAlign: cacheLine()},
		},
		{
			name:     "empty document keeps defaults",
			doc:      `{}`,
			expected: DefaultConfig(),
		},
		{
			name:     "chunk clipped to limit",
			doc:      `{"chunk_size": 8192, "limit": 2048, "chunk_align": 256}`,
			expected: Config{ChunkSize: 2048, Limit: 2048, ChunkAlign: 256},
		},
		{
			name: "bad alignment",
			doc:  `{"chunk_align": 48}`,
			err:  ErrInvalidArgument,
		},
		{
			name: "negative limit",
			doc:  `{"limit": -1}`,
			err:  ErrInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig([]byte(tt.doc))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestConfigChunkTooLarge(t *testing.T) {
	_, err := NewArenaWithConfig(Config{ChunkSize: math.MaxInt / 2})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewArenaWithConfig(Config{ChunkSize: maxAlloc})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLoadConfigMalformed(t *testing.T) {
	_, err := LoadConfig([]byte(`{"chunk_size": "big"`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidArgument)
}

func TestChunkAlignment(t *testing.T) {
	a := mustArena(Config{ChunkSize: 1024, ChunkAlign: 4096})
	b, err := a.Allocate(1, 1)
	require.NoError(t, err)
	assert.True(t, IsAligned(b, 4096))

	_, err = a.Allocate(2000, 1)
	require.NoError(t, err)
	assert.True(t, IsAligned(a.chunks[1].buf, 4096))
}
