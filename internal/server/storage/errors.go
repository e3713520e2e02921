package storage

import "errors"

// Common server storage errors
var (
	// ErrObjectNotFound indicates that no row exists for the object
	ErrObjectNotFound = errors.New("canvas object not found")
)
