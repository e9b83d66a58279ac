package device

import (
	"time"

	"github.com/nerrad567/lightmount-core/internal/fixture"
)

// Fixture is the persisted and API-facing view of a light mount.
type Fixture struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	State        fixture.State      `json:"state"`
	Power        fixture.PowerLevel `json:"power"`
	SwitchIntent bool               `json:"switch_intent"`
	LinkedSwitch string             `json:"linked_switch,omitempty"`
	Position     fixture.Position   `json:"position"`
	Seq          uint64             `json:"seq"`
	Hazard       string             `json:"hazard,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Snapshot converts the fixture to the form a controller restores from.
func (f *Fixture) Snapshot() fixture.Snapshot {
	return fixture.Snapshot{
		ID:           f.ID,
		State:        f.State,
		Power:        f.Power,
		SwitchIntent: f.SwitchIntent,
		LinkedSwitch: f.LinkedSwitch,
		Position:     f.Position,
		Seq:          f.Seq,
	}
}

// apply copies the mutable fields of a controller snapshot.
func (f *Fixture) apply(snap fixture.Snapshot) {
	f.State = snap.State
	f.Power = snap.Power
	f.SwitchIntent = snap.SwitchIntent
	f.LinkedSwitch = snap.LinkedSwitch
	f.Position = snap.Position
	f.Seq = snap.Seq
	f.Hazard = snap.Hazard
}

// SpawnRequest describes a fixture to create.
type SpawnRequest struct {
	// ID is optional; a "fix-" prefixed UUID is generated when empty.
	ID       string           `json:"id,omitempty"`
	Name     string           `json:"name"`
	Position fixture.Position `json:"position"`

	// HasModule overrides the configured initial state: false spawns an
	// empty mount. Nil follows the template.
	HasModule *bool `json:"has_module,omitempty"`

	// LinkedSwitch links the fixture to a switch right after spawning.
	LinkedSwitch string `json:"linked_switch,omitempty"`
}
