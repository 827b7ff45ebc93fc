package world

import (
	"errors"
	"fmt"
)

// ErrQueueFull reports a rejected command. The queue is drained once
// per tick; a full queue means the producer outpaces the loop.
var ErrQueueFull = errors.New("world: command queue full")

// SystemError carries a system failure out of the run loop with the
// system's name and the tick it failed on.
type SystemError struct {
	System string
	Tick   uint64
	Err    error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("world: system %q failed at tick %d: %v", e.System, e.Tick, e.Err)
}

func (e *SystemError) Unwrap() error {
	return e.Err
}
