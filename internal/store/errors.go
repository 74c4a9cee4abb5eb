package store

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrSlotTaken is returned when an insert hits the active (provider, slot) uniqueness constraint.
	ErrSlotTaken = errors.New("slot already taken")
)
