package mqtt

import "testing"

func TestTopicBuilders(t *testing.T) {
	topics := NewTopics("lightmount")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Power", topics.Power("fix-1"), "lightmount/power/fix-1"},
		{"Damage", topics.Damage("fix-1"), "lightmount/damage/fix-1"},
		{"Interaction", topics.Interaction("fix-1"), "lightmount/interaction/fix-1"},
		{"Link", topics.Link("fix-1"), "lightmount/link/fix-1"},
		{"SwitchSet", topics.SwitchSet("sw-hall"), "lightmount/switch/sw-hall/set"},
		{"State", topics.State("fix-1"), "lightmount/state/fix-1"},
		{"Event", topics.Event("hazard"), "lightmount/event/hazard"},
		{"SystemStatus", topics.SystemStatus(), "lightmount/system/status"},
		{"AllPower", topics.AllPower(), "lightmount/power/+"},
		{"AllDamage", topics.AllDamage(), "lightmount/damage/+"},
		{"AllInteractions", topics.AllInteractions(), "lightmount/interaction/+"},
		{"AllLinks", topics.AllLinks(), "lightmount/link/+"},
		{"AllSwitchSets", topics.AllSwitchSets(), "lightmount/switch/+/set"},
		{"AllEvents", topics.AllEvents(), "lightmount/event/+"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestNewTopics_Prefix(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "lightmount/state/a"},
		{"/site-7/", "site-7/state/a"},
		{"deck/3", "deck/3/state/a"},
	}
	for _, tt := range tests {
		if got := NewTopics(tt.prefix).State("a"); got != tt.want {
			t.Errorf("NewTopics(%q).State = %q, want %q", tt.prefix, got, tt.want)
		}
	}
	if got := (Topics{}).SystemStatus(); got != "lightmount/system/status" {
		t.Errorf("zero Topics SystemStatus = %q", got)
	}
}

func TestFixtureFromTopic(t *testing.T) {
	topics := NewTopics("lightmount")

	tests := []struct {
		topic string
		id    string
		ok    bool
	}{
		{"lightmount/power/fix-1", "fix-1", true},
		{"lightmount/damage/fix-2", "fix-2", true},
		{"lightmount/interaction/fix-3", "fix-3", true},
		{"lightmount/link/fix-4", "fix-4", true},
		{"lightmount/state/fix-5", "fix-5", true},
		{"lightmount/event/hazard", "", false},
		{"lightmount/power/", "", false},
		{"lightmount/power/a/b", "", false},
		{"other/power/fix-1", "", false},
	}
	for _, tt := range tests {
		id, ok := topics.FixtureFromTopic(tt.topic)
		if id != tt.id || ok != tt.ok {
			t.Errorf("FixtureFromTopic(%q) = (%q, %t), want (%q, %t)", tt.topic, id, ok, tt.id, tt.ok)
		}
	}
}

func TestSwitchFromTopic(t *testing.T) {
	topics := NewTopics("lightmount")

	tests := []struct {
		topic string
		id    string
		ok    bool
	}{
		{"lightmount/switch/sw-hall/set", "sw-hall", true},
		{"lightmount/switch/sw-hall", "", false},
		{"lightmount/switch//set", "", false},
		{"lightmount/switch/a/b/set", "", false},
		{"lightmount/power/sw/set", "", false},
	}
	for _, tt := range tests {
		id, ok := topics.SwitchFromTopic(tt.topic)
		if id != tt.id || ok != tt.ok {
			t.Errorf("SwitchFromTopic(%q) = (%q, %t), want (%q, %t)", tt.topic, id, ok, tt.id, tt.ok)
		}
	}
}
