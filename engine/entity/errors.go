package entity

import "github.com/pkg/errors"

// Errors returned by lifecycle operations. Callers unwrap with errors.Cause.
var (
	// ErrAlreadySpawned is returned when spawning an entity that is already spawned
	ErrAlreadySpawned = errors.New("entity already spawned")
	// ErrNotSpawned is returned when operating on an entity that is not spawned
	ErrNotSpawned = errors.New("entity not spawned")
	// ErrDuplicateID is returned when another live entity already holds the id
	ErrDuplicateID = errors.New("entity id already in use")
	// ErrNotAuthority is returned when the operation requires authority
	ErrNotAuthority = errors.New("operation requires authority")
)
