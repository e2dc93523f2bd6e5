package sim

import "errors"

var (
	// ErrInvalidConfig is wrapped by every construction-time validation failure.
	ErrInvalidConfig = errors.New("sim: invalid configuration")

	// ErrInvalidDelta indicates a non-positive or non-finite tick duration.
	ErrInvalidDelta = errors.New("sim: elapsed time must be positive and finite")

	// ErrAlreadySpawned is returned when the spawn planner runs a second time.
	ErrAlreadySpawned = errors.New("sim: world already spawned")
)
