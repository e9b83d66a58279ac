package fixture

import "errors"

// Domain errors for the fixture package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, fixture.ErrUnauthorizedMutation) {
//	    // a replica tried to mutate
//	}
var (
	// ErrUnauthorizedMutation is returned when a non-authoritative controller
	// is asked to apply a change.
	ErrUnauthorizedMutation = errors.New("fixture: mutation on non-authoritative controller")

	// ErrNotSpawned is returned when an operation requires a spawned fixture.
	ErrNotSpawned = errors.New("fixture: not spawned")

	// ErrAlreadySpawned is returned when Spawn or Restore is called twice.
	ErrAlreadySpawned = errors.New("fixture: already spawned")

	// ErrTornDown is returned for any operation after Despawn.
	ErrTornDown = errors.New("fixture: torn down")

	// ErrOutOfOrder is returned when a replica receives a record out of sequence.
	ErrOutOfOrder = errors.New("fixture: record out of order")

	// ErrUnknownEmitter is returned when linking to a switch that does not exist.
	ErrUnknownEmitter = errors.New("fixture: unknown emitter")

	// ErrInvalidState is returned when a state name is not recognised.
	ErrInvalidState = errors.New("fixture: invalid state")

	// ErrInvalidPowerLevel is returned when a power level name is not recognised.
	ErrInvalidPowerLevel = errors.New("fixture: invalid power level")

	// ErrInvalidProfile is returned when a profile catalog fails validation.
	ErrInvalidProfile = errors.New("fixture: invalid profile")
)
