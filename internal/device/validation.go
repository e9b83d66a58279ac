package device

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	maxNameLength = 100
	maxIDLength   = 64

	// fixtureIDPrefix marks generated identifiers.
	fixtureIDPrefix = "fix-"
)

// idRegex keeps IDs safe as MQTT topic segments and URL path parameters.
var idRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// NewFixtureID returns a fresh fixture identifier.
func NewFixtureID() string {
	return fixtureIDPrefix + uuid.NewString()
}

// ValidateID checks an externally supplied fixture or switch ID.
func ValidateID(id string) error {
	if id == "" || len(id) > maxIDLength || !idRegex.MatchString(id) {
		return fmt.Errorf("%w: id %q must match %s (max %d chars)", ErrInvalidFixture, id, idRegex, maxIDLength)
	}
	return nil
}

// ValidateName checks a fixture display name. Empty names are allowed.
func ValidateName(name string) error {
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidFixture, maxNameLength)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: name has leading or trailing whitespace", ErrInvalidFixture)
	}
	return nil
}

// ValidateSpawnRequest normalises and checks req in place.
func ValidateSpawnRequest(req *SpawnRequest) error {
	if req == nil {
		return ErrInvalidFixture
	}
	if req.ID == "" {
		req.ID = NewFixtureID()
	} else if err := ValidateID(req.ID); err != nil {
		return err
	}
	if err := ValidateName(req.Name); err != nil {
		return err
	}
	if req.LinkedSwitch != "" {
		if err := ValidateID(req.LinkedSwitch); err != nil {
			return err
		}
	}
	return nil
}
