package device

import "errors"

// Domain errors for the device package.
//
//	if errors.Is(err, device.ErrFixtureNotFound) {
//	    // handle not found case
//	}
var (
	// ErrFixtureNotFound is returned when a fixture ID does not exist.
	ErrFixtureNotFound = errors.New("device: fixture not found")

	// ErrFixtureExists is returned when spawning a fixture with an ID in use.
	ErrFixtureExists = errors.New("device: fixture already exists")

	// ErrInvalidFixture is returned when fixture validation fails.
	ErrInvalidFixture = errors.New("device: invalid fixture")
)
