package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is the root of every Lightmount topic.
const DefaultTopicPrefix = "lightmount"

// Topics builds Lightmount MQTT topics under a common prefix.
//
// Inbound notifications address a fixture (or switch) by id:
//
//	lightmount/power/{fixture}
//	lightmount/damage/{fixture}
//	lightmount/interaction/{fixture}
//	lightmount/link/{fixture}
//	lightmount/switch/{switch}/set
//
// Outbound traffic is the retained fixture state plus collaborator events:
//
//	lightmount/state/{fixture}
//	lightmount/event/{kind}
//	lightmount/system/status
type Topics struct {
	Prefix string
}

// NewTopics returns a topic builder for prefix, falling back to
// DefaultTopicPrefix when prefix is empty.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{Prefix: prefix}
}

func (t Topics) root() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// Power returns the topic carrying power level notifications for a fixture.
func (t Topics) Power(fixtureID string) string {
	return fmt.Sprintf("%s/power/%s", t.root(), fixtureID)
}

// Damage returns the topic carrying damage reports for a fixture.
func (t Topics) Damage(fixtureID string) string {
	return fmt.Sprintf("%s/damage/%s", t.root(), fixtureID)
}

// Interaction returns the topic carrying actor interaction requests for a fixture.
func (t Topics) Interaction(fixtureID string) string {
	return fmt.Sprintf("%s/interaction/%s", t.root(), fixtureID)
}

// Link returns the topic used to set or clear a fixture's switch link.
func (t Topics) Link(fixtureID string) string {
	return fmt.Sprintf("%s/link/%s", t.root(), fixtureID)
}

// SwitchSet returns the topic that toggles a wall switch.
func (t Topics) SwitchSet(switchID string) string {
	return fmt.Sprintf("%s/switch/%s/set", t.root(), switchID)
}

// State returns the retained state topic for a fixture.
func (t Topics) State(fixtureID string) string {
	return fmt.Sprintf("%s/state/%s", t.root(), fixtureID)
}

// Event returns the topic for a collaborator event kind
// (hazard, item_spawn, item_consume, injury, cue).
func (t Topics) Event(kind string) string {
	return fmt.Sprintf("%s/event/%s", t.root(), kind)
}

// SystemStatus returns the online/offline status topic (also the LWT topic).
func (t Topics) SystemStatus() string {
	return t.root() + "/system/status"
}

// AllPower matches power notifications for every fixture.
func (t Topics) AllPower() string { return t.Power("+") }

// AllDamage matches damage reports for every fixture.
func (t Topics) AllDamage() string { return t.Damage("+") }

// AllInteractions matches interaction requests for every fixture.
func (t Topics) AllInteractions() string { return t.Interaction("+") }

// AllLinks matches link updates for every fixture.
func (t Topics) AllLinks() string { return t.Link("+") }

// AllSwitchSets matches toggle commands for every switch.
func (t Topics) AllSwitchSets() string { return t.SwitchSet("+") }

// AllEvents matches every outbound collaborator event.
func (t Topics) AllEvents() string { return t.Event("+") }

// FixtureFromTopic extracts the trailing id of a per-fixture topic built by
// Power, Damage, Interaction, Link or State.
func (t Topics) FixtureFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.root()+"/")
	if !ok {
		return "", false
	}
	kind, id, ok := strings.Cut(rest, "/")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	switch kind {
	case "power", "damage", "interaction", "link", "state":
		return id, true
	}
	return "", false
}

// SwitchFromTopic extracts the switch id from a SwitchSet topic.
func (t Topics) SwitchFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.root()+"/switch/")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/set")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
