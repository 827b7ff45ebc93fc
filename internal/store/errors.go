package store

import "errors"

var (
	// ErrUnknownHandle indicates no data set is registered under the handle.
	ErrUnknownHandle = errors.New("store: unknown type handle")

	// ErrTypeMismatch indicates the requested type does not match the
	// set recorded under the handle.
	ErrTypeMismatch = errors.New("store: type does not match handle")
)
