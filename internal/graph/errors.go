package graph

import "errors"

var (
	// ErrMissingNode indicates an edge references a node that is not in
	// the store. This is an internal defect, not an input error.
	ErrMissingNode = errors.New("graph: edge references missing node")

	// ErrColorConflict indicates two adjacent nodes share a color. The
	// coloring guarantee is broken and scheduling on it would be
	// unsound; callers must treat this as fatal.
	ErrColorConflict = errors.New("graph: adjacent nodes share a color")

	// ErrUncoloredNode indicates a node was left uncolored.
	ErrUncoloredNode = errors.New("graph: node left uncolored")
)
