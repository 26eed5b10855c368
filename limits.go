package golisting

import "math"

const (
	// Unbounded requests items until the source is exhausted. It is a large
	// positive sentinel rather than a negative one, so amount <= 0 keeps its
	// no-op meaning and residual arithmetic needs no special casing.
	Unbounded = math.MaxInt

	// MaxPageSize is the hard cap the remote source places on a single page.
	MaxPageSize = 100

	// DefaultPageSize is the page size used when a replayed source receives
	// no explicit limit.
	DefaultPageSize = 25
)

func IsClampedPageSizeMax(amount int, maxSize int) (int, bool) {
	if amount <= 0 {
		return DefaultPageSize, false
	} else if amount > maxSize {
		return maxSize, false
	}

	return amount, true
}

func ClampPageSizeMax(amount int, maxSize int) int {
	ret, _ := IsClampedPageSizeMax(amount, maxSize)
	return ret
}

func ClampPageSize(amount int) int {
	return ClampPageSizeMax(amount, MaxPageSize)
}
