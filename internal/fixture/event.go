package fixture

import "fmt"

// EventKind identifies a state machine input.
type EventKind uint8

// Event kinds accepted by Transition.
const (
	EventModuleInserted EventKind = iota + 1
	EventModuleRemoved
	EventPowerChanged
	EventSwitchToggled
	EventIntegrityBreached
)

func (k EventKind) String() string {
	switch k {
	case EventModuleInserted:
		return "module_inserted"
	case EventModuleRemoved:
		return "module_removed"
	case EventPowerChanged:
		return "power_changed"
	case EventSwitchToggled:
		return "switch_toggled"
	case EventIntegrityBreached:
		return "integrity_breached"
	default:
		return fmt.Sprintf("event(%d)", uint8(k))
	}
}

// Event is a state machine input. Only the field matching Kind is meaningful.
type Event struct {
	Kind           EventKind
	Defective      bool       // ModuleInserted
	Power          PowerLevel // PowerChanged
	On             bool       // SwitchToggled
	AlreadyFragile bool       // IntegrityBreached
}

// ModuleInserted builds an insertion event.
func ModuleInserted(defective bool) Event {
	return Event{Kind: EventModuleInserted, Defective: defective}
}

// ModuleRemoved builds a removal event.
func ModuleRemoved() Event {
	return Event{Kind: EventModuleRemoved}
}

// PowerChanged builds a grid power event.
func PowerChanged(level PowerLevel) Event {
	return Event{Kind: EventPowerChanged, Power: level}
}

// SwitchToggled builds a switch toggle event.
func SwitchToggled(on bool) Event {
	return Event{Kind: EventSwitchToggled, On: on}
}

// IntegrityBreached builds a damage event.
func IntegrityBreached(alreadyFragile bool) Event {
	return Event{Kind: EventIntegrityBreached, AlreadyFragile: alreadyFragile}
}

func (e Event) String() string {
	switch e.Kind {
	case EventModuleInserted:
		return fmt.Sprintf("%s(defective=%t)", e.Kind, e.Defective)
	case EventPowerChanged:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Power)
	case EventSwitchToggled:
		return fmt.Sprintf("%s(on=%t)", e.Kind, e.On)
	case EventIntegrityBreached:
		return fmt.Sprintf("%s(fragile=%t)", e.Kind, e.AlreadyFragile)
	default:
		return e.Kind.String()
	}
}

// Effect is a side-effect instruction returned by Transition. Effects are
// dispatched by the Controller after the new state is committed.
type Effect uint8

// Effects emitted by Transition.
const (
	// EffectEmitModule spawns the module that was in the mount before the
	// transition.
	EffectEmitModule Effect = iota + 1

	// EffectSpawnDebris drops debris at the fixture position.
	EffectSpawnDebris

	// EffectStartHazard arms the hazard scheduler.
	EffectStartHazard

	// EffectStopHazard disarms the hazard scheduler.
	EffectStopHazard

	// EffectDestructionCue plays the destruction cue.
	EffectDestructionCue
)

func (e Effect) String() string {
	switch e {
	case EffectEmitModule:
		return "emit_module"
	case EffectSpawnDebris:
		return "spawn_debris"
	case EffectStartHazard:
		return "start_hazard"
	case EffectStopHazard:
		return "stop_hazard"
	case EffectDestructionCue:
		return "destruction_cue"
	default:
		return fmt.Sprintf("effect(%d)", uint8(e))
	}
}
