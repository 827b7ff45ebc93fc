package query

import "errors"

var (
	// ErrWritePromoted signals that a mutable view was requested on a
	// handle the system declared read-only. The promotion is recorded
	// and the schedule marked stale; the system should return this
	// error and will run with the write granted after the next
	// resolve. No pointer is handed out under the old schedule.
	ErrWritePromoted = errors.New("query: read promoted to write, deferred to next schedule")

	// ErrUndeclaredHandle indicates an access outside the system's
	// declared read/write sets.
	ErrUndeclaredHandle = errors.New("query: handle not declared by system")

	// ErrTypeMismatch indicates a row access with the wrong value type
	// for the handle.
	ErrTypeMismatch = errors.New("query: type does not match handle")

	// ErrAbsentKey indicates a row access for a handle the current key
	// has no entry under.
	ErrAbsentKey = errors.New("query: key absent from requested set")
)
