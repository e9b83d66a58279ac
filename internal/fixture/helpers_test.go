package fixture

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced Clock. AfterFunc callbacks run
// synchronously inside Advance in deadline order.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.pending = append(c.pending, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward by d, firing every timer that falls due,
// including timers scheduled by callbacks during the advance.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		idx := -1
		for i, t := range c.pending {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next, idx = t, i
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.now = next.at
		c.pending = append(c.pending[:idx], c.pending[idx+1:]...)
		c.mu.Unlock()

		next.fn()
	}
}

// Live returns the number of timers that can still fire.
func (c *fakeClock) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.pending {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// sinkRecorder implements every collaborator interface and Observer.
type sinkRecorder struct {
	mu       sync.Mutex
	spawns   []SpawnRequest
	consumes []ConsumeRequest
	hazards  []HazardEvent
	injuries []Injury
	cues     []CueEvent
	records  []Record
}

func (r *sinkRecorder) SpawnItem(req SpawnRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spawns = append(r.spawns, req)
}

func (r *sinkRecorder) ConsumeItem(req ConsumeRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumes = append(r.consumes, req)
}

func (r *sinkRecorder) HazardTriggered(ev HazardEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hazards = append(r.hazards, ev)
}

func (r *sinkRecorder) ApplyInjury(inj Injury) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.injuries = append(r.injuries, inj)
}

func (r *sinkRecorder) PlayCue(ev CueEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, ev)
}

func (r *sinkRecorder) Observe(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *sinkRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spawns, r.consumes, r.hazards = nil, nil, nil
	r.injuries, r.cues, r.records = nil, nil, nil
}

func (r *sinkRecorder) transitions() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Record
	for _, rec := range r.records {
		if rec.Kind == RecordTransition {
			out = append(out, rec)
		}
	}
	return out
}

func (r *sinkRecorder) hazardCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hazards)
}

// testRig is a spawned authoritative controller with recorded collaborators.
type testRig struct {
	ctrl  *Controller
	sinks *sinkRecorder
	clock *fakeClock
	board *Switchboard
}

func newRig(t *testing.T, mutate func(*Config)) *testRig {
	t.Helper()

	cfg := DefaultConfig("fix-test")
	cfg.Seed = 42
	cfg.Position = Position{Grid: "station", X: 4, Y: 7}
	if mutate != nil {
		mutate(&cfg)
	}

	sinks := &sinkRecorder{}
	clock := newFakeClock()
	board := NewSwitchboard()
	ctrl := NewController(cfg, Dependencies{
		Clock:    clock,
		Emitters: board,
		Collaborators: Collaborators{
			Spawner:  sinks,
			Hazards:  sinks,
			Injuries: sinks,
			Cues:     sinks,
		},
	})
	ctrl.AddObserver(sinks)
	return &testRig{ctrl: ctrl, sinks: sinks, clock: clock, board: board}
}

func (r *testRig) spawn(t *testing.T, hasModule bool) {
	t.Helper()
	if err := r.ctrl.Spawn(hasModule); err != nil {
		t.Fatalf("Spawn(%t) error = %v", hasModule, err)
	}
}

func gloved() Actor {
	return Actor{
		ID:         "actor-1",
		ActiveHand: HandRight,
		Held:       []Item{{ID: "gloves-1", Traits: []string{TraitInsulatedGloves}}},
	}
}

func tube(id string, traits ...string) *Item {
	return &Item{ID: id, Traits: append([]string{TraitLightTube}, traits...)}
}

func mustState(t *testing.T, c *Controller, want State) {
	t.Helper()
	if got := c.State(); got != want {
		t.Fatalf("State() = %s, want %s", got, want)
	}
}
