//go:build !debug

package debug

// Enabled reports whether assertions are compiled in.
const Enabled = false

// Assert is a no-op in release builds.
func Assert(cond bool, msg string) {}
