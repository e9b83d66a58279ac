package fixture

import (
	"fmt"
	"strings"
)

// State is the light mount state. Exactly one state is active at a time.
type State uint8

// Light mount states.
const (
	StateUninitialized State = iota
	StateModuleAbsent
	StateOn
	StateOff
	StateEmergency
	StateDegraded // broken module still in the mount
	StateDisabled // burned out
)

var stateNames = [...]string{
	StateUninitialized: "uninitialized",
	StateModuleAbsent:  "module_absent",
	StateOn:            "on",
	StateOff:           "off",
	StateEmergency:     "emergency",
	StateDegraded:      "degraded",
	StateDisabled:      "disabled",
}

// AllStates lists every state in declaration order.
func AllStates() []State {
	return []State{
		StateUninitialized,
		StateModuleAbsent,
		StateOn,
		StateOff,
		StateEmergency,
		StateDegraded,
		StateDisabled,
	}
}

// String returns the snake_case name of the state.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// HasModule reports whether a module (intact or not) sits in the mount.
func (s State) HasModule() bool {
	return s != StateModuleAbsent && s != StateUninitialized
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if int(s) >= len(stateNames) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, uint8(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseState converts a state name to a State. Matching is case-insensitive.
func ParseState(name string) (State, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return StateUninitialized, fmt.Errorf("%w: %q", ErrInvalidState, name)
}

// PowerLevel is the grid power level last reported for the fixture.
type PowerLevel uint8

// Power levels supplied by the grid.
const (
	PowerOff PowerLevel = iota
	PowerNominal
	PowerLow
	PowerOver
)

var powerNames = [...]string{
	PowerOff:     "off",
	PowerNominal: "nominal",
	PowerLow:     "low",
	PowerOver:    "over",
}

// String returns the name of the power level.
func (p PowerLevel) String() string {
	if int(p) < len(powerNames) {
		return powerNames[p]
	}
	return fmt.Sprintf("power(%d)", uint8(p))
}

// Present reports whether any power reaches the fixture.
func (p PowerLevel) Present() bool {
	return p != PowerOff
}

// MarshalText implements encoding.TextMarshaler.
func (p PowerLevel) MarshalText() ([]byte, error) {
	if int(p) >= len(powerNames) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPowerLevel, uint8(p))
	}
	return []byte(powerNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PowerLevel) UnmarshalText(text []byte) error {
	parsed, err := ParsePowerLevel(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePowerLevel converts a power level name to a PowerLevel.
func ParsePowerLevel(name string) (PowerLevel, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range powerNames {
		if n == name {
			return PowerLevel(i), nil
		}
	}
	return PowerOff, fmt.Errorf("%w: %q", ErrInvalidPowerLevel, name)
}
