package fixture

// Inputs are the parts of the fixture aggregate that Transition consults
// besides the current state.
type Inputs struct {
	// SwitchIntent is the last commanded on/off request.
	SwitchIntent bool

	// Power is the last seen grid power level.
	Power PowerLevel
}

// Transition computes the next state and the effects of applying ev in
// state s. It is total: pairs without a rule return (s, nil).
//
// Guards are checked before any rule: power changes never move a fixture
// out of ModuleAbsent, Degraded or Disabled, and switch toggles only act
// on On and Off.
func Transition(s State, in Inputs, ev Event) (State, []Effect) {
	switch ev.Kind {
	case EventModuleInserted:
		return onInserted(s, in, ev.Defective)
	case EventModuleRemoved:
		return onRemoved(s)
	case EventPowerChanged:
		return onPower(s, ev.Power)
	case EventSwitchToggled:
		return onSwitch(s, ev.On)
	case EventIntegrityBreached:
		return onBreached(s, in, ev.AlreadyFragile)
	}
	return s, nil
}

func onInserted(s State, in Inputs, defective bool) (State, []Effect) {
	if s != StateModuleAbsent {
		return s, nil
	}
	if defective {
		if in.Power.Present() {
			return StateDegraded, []Effect{EffectStartHazard}
		}
		return StateDegraded, nil
	}
	return litState(in), nil
}

// litState resolves where an intact module settles given power and switch.
func litState(in Inputs) State {
	switch {
	case in.SwitchIntent && in.Power == PowerNominal:
		return StateOn
	case in.Power == PowerOver:
		return StateOff
	default:
		return StateEmergency
	}
}

func onRemoved(s State) (State, []Effect) {
	switch s {
	case StateOn, StateOff, StateEmergency, StateDisabled:
		return StateModuleAbsent, []Effect{EffectEmitModule}
	case StateDegraded:
		return StateModuleAbsent, []Effect{EffectEmitModule, EffectStopHazard}
	}
	return s, nil
}

func onPower(s State, level PowerLevel) (State, []Effect) {
	switch s {
	case StateOn, StateOff, StateEmergency:
	default:
		return s, nil
	}

	switch level {
	case PowerNominal:
		return StateOn, nil
	case PowerLow, PowerOff:
		return StateEmergency, nil
	case PowerOver:
		return StateDisabled, nil
	}
	return s, nil
}

func onSwitch(s State, on bool) (State, []Effect) {
	if s != StateOn && s != StateOff {
		return s, nil
	}
	if on {
		return StateOn, nil
	}
	return StateOff, nil
}

func onBreached(s State, in Inputs, alreadyFragile bool) (State, []Effect) {
	switch {
	case !alreadyFragile && (s == StateOn || s == StateEmergency):
		if in.Power.Present() {
			return StateDegraded, []Effect{EffectSpawnDebris, EffectStartHazard}
		}
		return StateDegraded, []Effect{EffectSpawnDebris}
	case alreadyFragile && s == StateDegraded:
		return StateModuleAbsent, []Effect{EffectStopHazard, EffectDestructionCue}
	}
	return s, nil
}
