package entities

import "errors"

// Closed set of failure conditions shared by the stores and services.
// Callers branch with errors.Is instead of matching message text.
var (
	// ErrNotFound is returned by operations that require an existing
	// record. Plain get operations return an absent value instead.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned by create operations when a record
	// with the same computed identifier is already stored.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrInvalidRecord is returned when a record fails domain validation
	// before it is ever persisted.
	ErrInvalidRecord = errors.New("invalid record")
)
