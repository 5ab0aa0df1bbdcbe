// Package debug provides assertions that are compiled in only when building
// with the debug tag:
//
//	go test -tags debug ./...
//
// Without the tag every function is a no-op the compiler removes.
package debug
