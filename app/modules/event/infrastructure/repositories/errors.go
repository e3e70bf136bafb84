package eventdb

import "errors"

var (
	ErrNotFound = errors.New("event record not found")

	// ErrSlotHeld is returned when the one-slot-per-user index rejects a write.
	ErrSlotHeld = errors.New("user already holds a slot in this event")
)
