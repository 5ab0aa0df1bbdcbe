package rawalloc

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

var pkgLogger atomic.Pointer[slog.Logger]

func init() { SetLogger(nil) }

// SetLogger routes the package's slow-path events (arena growth, fallback
// spill-over and exhaustion, mapping failures) to l. A nil l restores the
// discarding logger. It is safe to call while allocators are in use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	pkgLogger.Store(l)
}

func logger() *slog.Logger { return pkgLogger.Load() }

func debugEnabled() bool {
	return logger().Enabled(context.Background(), slog.LevelDebug)
}
