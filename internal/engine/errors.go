package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNameCollision is matched by every *CollisionError.
	ErrNameCollision = errors.New("name collision")

	// ErrOrderingUnverified means the directory still enumerated out of
	// order after every reorder attempt. It is a warning: the renames stand.
	ErrOrderingUnverified = errors.New("ordering unverified")

	// ErrEmptyName rejects a rename whose label sanitizes to nothing.
	ErrEmptyName = errors.New("empty name")

	// ErrInvalidName rejects a target name that would leave the working
	// directory.
	ErrInvalidName = errors.New("invalid name")
)

// CollisionError reports a rename whose target already exists as a
// different file. The pass stops at the first collision; renames done
// before it are kept.
type CollisionError struct {
	From string
	To   string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("rename %q to %q: target already exists", e.From, e.To)
}

func (e *CollisionError) Is(target error) bool {
	return target == ErrNameCollision
}
