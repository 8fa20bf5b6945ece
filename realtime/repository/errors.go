package repository

import "errors"

var (
	// ErrContainerMissing is returned when a replicated container was
	// deleted or never created. Callers treat it as a best-effort failure.
	ErrContainerMissing = errors.New("replicated container missing")

	// ErrIndexOutOfRange is returned for positional mutations against an
	// index that no longer exists in the container snapshot.
	ErrIndexOutOfRange = errors.New("container index out of range")
)
