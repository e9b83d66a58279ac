package fixture

import (
	"errors"
	"testing"
)

func TestLink_RelinkDropsPreviousEmitter(t *testing.T) {
	rig := newRig(t, nil)
	a := rig.board.Add("sw-a", true)
	b := rig.board.Add("sw-b", true)
	rig.spawn(t, true)

	if err := rig.ctrl.SetLink("sw-a"); err != nil {
		t.Fatal(err)
	}
	if err := rig.ctrl.SetLink("sw-b"); err != nil {
		t.Fatal(err)
	}
	if a.Subscribers() != 0 || b.Subscribers() != 1 {
		t.Fatalf("subscribers a=%d b=%d", a.Subscribers(), b.Subscribers())
	}
	rig.sinks.reset()

	a.Toggle(false)
	mustState(t, rig.ctrl, StateOn)
	if len(rig.sinks.records) != 0 {
		t.Fatalf("toggle from old link produced %v", rig.sinks.records)
	}

	b.Toggle(false)
	mustState(t, rig.ctrl, StateOff)
	if got := rig.sinks.transitions(); len(got) != 1 {
		t.Errorf("single toggle produced %d transitions", len(got))
	}
}

func TestLink_SameEmitterTwiceKeepsOneSubscription(t *testing.T) {
	rig := newRig(t, nil)
	sw := rig.board.Add("sw-a", true)
	rig.spawn(t, true)

	rig.ctrl.SetLink("sw-a")
	rig.ctrl.SetLink("sw-a")
	if sw.Subscribers() != 1 {
		t.Fatalf("subscribers = %d", sw.Subscribers())
	}
	rig.sinks.reset()
	sw.Toggle(false)
	if got := rig.sinks.transitions(); len(got) != 1 {
		t.Errorf("transitions = %d, want 1", len(got))
	}
}

func TestLink_UnknownEmitterKeepsLink(t *testing.T) {
	rig := newRig(t, nil)
	rig.board.Add("sw-a", true)
	rig.spawn(t, true)
	rig.ctrl.SetLink("sw-a")

	if err := rig.ctrl.SetLink("sw-missing"); !errors.Is(err, ErrUnknownEmitter) {
		t.Fatalf("SetLink() error = %v", err)
	}
	if rig.ctrl.LinkedSwitch() != "sw-a" {
		t.Errorf("link = %q", rig.ctrl.LinkedSwitch())
	}
}

func TestLink_StaleCallbackIgnored(t *testing.T) {
	rig := newRig(t, nil)
	sw := rig.board.Add("sw-a", true)
	rig.spawn(t, true)

	var captured func(bool)
	emitter := &capturingEmitter{id: "sw-cap", onSubscribe: func(fn func(bool)) { captured = fn }}
	rig.ctrl.link.directory = directoryFunc(func(id string) (Emitter, bool) {
		if id == "sw-cap" {
			return emitter, true
		}
		return rig.board.Lookup(id)
	})

	rig.ctrl.SetLink("sw-cap")
	rig.ctrl.SetLink("sw-a")
	rig.sinks.reset()

	captured(false)
	mustState(t, rig.ctrl, StateOn)
	sw.Toggle(false)
	mustState(t, rig.ctrl, StateOff)
}

func TestLink_ToggleRecordsIntentWhenIgnored(t *testing.T) {
	rig := newRig(t, nil)
	sw := rig.board.Add("sw-a", true)
	rig.spawn(t, false)
	rig.ctrl.SetLink("sw-a")

	sw.Toggle(false)
	mustState(t, rig.ctrl, StateModuleAbsent)
	if rig.ctrl.SwitchIntent() {
		t.Fatal("intent not recorded")
	}

	rig.ctrl.Interact(InteractionRequest{Kind: InteractionInsert, Item: tube("t")})
	mustState(t, rig.ctrl, StateEmergency)

	sw.Toggle(true)
	mustState(t, rig.ctrl, StateEmergency)
}

func TestLinkToggle_ByID(t *testing.T) {
	rig := newRig(t, nil)
	rig.board.Add("sw-a", true)
	rig.spawn(t, true)
	rig.ctrl.SetLink("sw-a")

	rig.ctrl.LinkToggle("sw-other", false)
	mustState(t, rig.ctrl, StateOn)
	rig.ctrl.LinkToggle("sw-a", false)
	mustState(t, rig.ctrl, StateOff)

	rig.ctrl.ClearLink()
	rig.ctrl.LinkToggle("sw-a", true)
	mustState(t, rig.ctrl, StateOff)
}

type capturingEmitter struct {
	id          string
	onSubscribe func(func(bool))
}

func (e *capturingEmitter) ID() string { return e.id }

func (e *capturingEmitter) Subscribe(fn func(bool)) func() {
	e.onSubscribe(fn)
	return func() {}
}

type directoryFunc func(id string) (Emitter, bool)

func (f directoryFunc) Lookup(id string) (Emitter, bool) { return f(id) }

func TestController_SnapshotChangedOnSilentUpdates(t *testing.T) {
	var changed []string
	board := NewSwitchboard()
	sw := board.Add("sw-a", true)
	ctrl := NewController(DefaultConfig("fix-quiet"), Dependencies{
		Clock:           newFakeClock(),
		Emitters:        board,
		SnapshotChanged: func(id string) { changed = append(changed, id) },
	})
	if err := ctrl.Spawn(true); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		name string
		run  func()
		want int
	}{
		{"power with transition", func() { ctrl.PowerChanged(PowerLow) }, 0},
		{"power without transition", func() { ctrl.PowerChanged(PowerOff) }, 1},
		{"link set", func() { ctrl.SetLink("sw-a") }, 1},
		{"ignored toggle", func() { sw.Toggle(false) }, 1},
		{"link clear", func() { ctrl.ClearLink() }, 1},
		{"clear when unlinked", func() { ctrl.ClearLink() }, 0},
	}
	for _, step := range steps {
		changed = nil
		step.run()
		if len(changed) != step.want {
			t.Errorf("%s: SnapshotChanged calls = %d, want %d", step.name, len(changed), step.want)
		}
	}
	if ctrl.State() != StateEmergency || ctrl.SwitchIntent() {
		t.Errorf("state = %s, intent = %t", ctrl.State(), ctrl.SwitchIntent())
	}
}
