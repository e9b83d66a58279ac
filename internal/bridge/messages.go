package bridge

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/lightmount-core/internal/fixture"
)

// Event kinds published under {prefix}/event/{kind}.
const (
	EventHazard      = "hazard"
	EventItemSpawn   = "item_spawn"
	EventItemConsume = "item_consume"
	EventInjury      = "injury"
	EventCue         = "cue"
	EventFeedback    = "feedback"
)

// AllFixtures addresses every fixture on a power topic
// ({prefix}/power/all).
const AllFixtures = "all"

// PowerMessage is the payload of {prefix}/power/{fixture}. Level is
// required; a message without it is rejected rather than read as off.
type PowerMessage struct {
	Level *fixture.PowerLevel `json:"level"`
}

// LinkMessage is the payload of {prefix}/link/{fixture}. An empty Switch
// clears the link.
type LinkMessage struct {
	Switch string `json:"switch"`
}

// SwitchMessage is the payload of {prefix}/switch/{switch}/set.
type SwitchMessage struct {
	On bool `json:"on"`
}

// InteractionMessage is the payload of {prefix}/interaction/{fixture}.
// RequestID is echoed in the feedback event.
type InteractionMessage struct {
	RequestID string `json:"request_id,omitempty"`
	fixture.InteractionRequest
}

// StateMessage is the retained payload of {prefix}/state/{fixture}.
type StateMessage struct {
	FixtureID string             `json:"fixture_id"`
	State     fixture.State      `json:"state"`
	Previous  fixture.State      `json:"previous"`
	Power     fixture.PowerLevel `json:"power"`
	Seq       uint64             `json:"seq"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewStateMessage builds the state payload for a transition record.
func NewStateMessage(rec fixture.Record) StateMessage {
	return StateMessage{
		FixtureID: rec.FixtureID,
		State:     rec.New,
		Previous:  rec.Old,
		Power:     rec.Power,
		Seq:       rec.Seq,
		Timestamp: rec.At,
	}
}

// EventMessage wraps every outbound collaborator event.
type EventMessage struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	FixtureID string    `json:"fixture_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEventMessage creates an event with a fresh ID.
func NewEventMessage(kind, fixtureID string, payload any) EventMessage {
	return EventMessage{
		ID:        uuid.NewString(),
		Type:      kind,
		FixtureID: fixtureID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// FeedbackMessage reports an interaction outcome back to the actor.
type FeedbackMessage struct {
	RequestID string `json:"request_id,omitempty"`
	ActorID   string `json:"actor_id"`
	fixture.InteractionResult
}
