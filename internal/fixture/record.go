package fixture

import (
	"fmt"
	"time"
)

// RecordKind distinguishes replication stream entries.
type RecordKind string

// Record kinds.
const (
	// RecordTransition is a committed state change.
	RecordTransition RecordKind = "transition"

	// RecordHazard is a hazard trigger. Old and New are equal.
	RecordHazard RecordKind = "hazard"
)

// Record is an immutable entry of the replication stream. Seq starts at 1
// and increases by one per record of a fixture.
type Record struct {
	Seq       uint64     `json:"seq"`
	FixtureID string     `json:"fixture_id"`
	Kind      RecordKind `json:"kind"`
	Old       State      `json:"old"`
	New       State      `json:"new"`
	Power     PowerLevel `json:"power"`
	At        time.Time  `json:"at"`
}

func (r Record) String() string {
	return fmt.Sprintf("#%d %s %s %s->%s", r.Seq, r.FixtureID, r.Kind, r.Old, r.New)
}

// Snapshot is the persisted form of a fixture aggregate.
type Snapshot struct {
	ID           string     `json:"id"`
	State        State      `json:"state"`
	Power        PowerLevel `json:"power"`
	SwitchIntent bool       `json:"switch_intent"`
	LinkedSwitch string     `json:"linked_switch,omitempty"`
	Position     Position   `json:"position"`
	Seq          uint64     `json:"seq"`
	Hazard       string     `json:"hazard"`
}
