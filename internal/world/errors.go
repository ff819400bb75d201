package world

import "errors"

var (
	// ErrInvalidArgument is wrapped by every construction failure in this package.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrOutOfRange is returned by terrain lookups outside the map bounds.
	ErrOutOfRange = errors.New("out of range")
)
