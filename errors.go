package rawalloc

import "github.com/pkg/errors"

var (
	// ErrOutOfMemory indicates that a backing resource could not satisfy a request.
	// It is always recoverable: try another allocator, shrink the request or propagate.
	ErrOutOfMemory = errors.New("rawalloc: out of memory")

	// ErrInvalidArgument indicates a malformed request or construction, such as a
	// non power-of-two alignment, a non-positive size or an empty fallback list.
	ErrInvalidArgument = errors.New("rawalloc: invalid argument")

	// ErrLength indicates that a byte-size computation overflowed the platform int.
	// It is a defect in the request, not resource exhaustion.
	ErrLength = errors.New("rawalloc: length overflow")
)
