package sparse

import "errors"

// Failure kinds for capacity changes. Both leave the set in its prior
// observable state.
var (
	// ErrInvalidKey indicates a negative key.
	ErrInvalidKey = errors.New("sparse: key must be non-negative")

	// ErrNegativeCount indicates a negative reserve request.
	ErrNegativeCount = errors.New("sparse: negative reserve count")

	// ErrCapacityOverflow indicates the requested capacity does not fit in an int.
	ErrCapacityOverflow = errors.New("sparse: capacity overflow")

	// ErrAllocFailed indicates the allocator refused the backing arrays.
	ErrAllocFailed = errors.New("sparse: allocation failed")
)
