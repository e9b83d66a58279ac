package fixture

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Hazard scheduler defaults.
const (
	DefaultHazardInterval    = time.Second
	DefaultHazardProbability = 0.30
	DefaultHazardIntensity   = 1000.0
)

// HazardStatus is the scheduler lifecycle state.
type HazardStatus uint8

// Scheduler states.
const (
	HazardIdle HazardStatus = iota
	HazardArmed
)

func (s HazardStatus) String() string {
	if s == HazardArmed {
		return "armed"
	}
	return "idle"
}

// HazardScheduler runs one Bernoulli trial per interval while armed and
// calls trigger on success. At most one timer is pending at any time.
//
// Each Arm starts a new generation; a tick belonging to an older
// generation does nothing, so a timer that fires concurrently with Disarm
// never reaches trigger.
//
// trigger is called without the scheduler lock held.
type HazardScheduler struct {
	clock       Clock
	interval    time.Duration
	probability float64
	trigger     func()

	mu     sync.Mutex
	rng    *rand.Rand
	status HazardStatus
	gen    uint64
	timer  Timer
}

// NewHazardScheduler creates an idle scheduler.
//
// Parameters:
//   - clock: time source for ticks
//   - interval: time between trials (<= 0 uses DefaultHazardInterval)
//   - probability: success probability of one trial, clamped to [0, 1]
//   - rng: random source for trials
//   - trigger: called once per successful trial
func NewHazardScheduler(clock Clock, interval time.Duration, probability float64, rng *rand.Rand, trigger func()) *HazardScheduler {
	if interval <= 0 {
		interval = DefaultHazardInterval
	}
	probability = max(0, min(1, probability))
	return &HazardScheduler{
		clock:       clock,
		interval:    interval,
		probability: probability,
		trigger:     trigger,
		rng:         rng,
	}
}

// Arm starts periodic trials. It reports false if already armed.
func (h *HazardScheduler) Arm() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.status == HazardArmed {
		return false
	}
	h.status = HazardArmed
	h.gen++
	h.scheduleLocked(h.gen)
	return true
}

// Disarm cancels the pending tick. It reports false if already idle.
func (h *HazardScheduler) Disarm() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.status == HazardIdle {
		return false
	}
	h.status = HazardIdle
	h.gen++
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	return true
}

// Status returns the current scheduler state.
func (h *HazardScheduler) Status() HazardStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Trial runs one Bernoulli trial immediately, independent of the schedule.
func (h *HazardScheduler) Trial() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rng.Float64() < h.probability
}

func (h *HazardScheduler) scheduleLocked(gen uint64) {
	h.timer = h.clock.AfterFunc(h.interval, func() { h.tick(gen) })
}

func (h *HazardScheduler) tick(gen uint64) {
	h.mu.Lock()
	if h.status != HazardArmed || gen != h.gen {
		h.mu.Unlock()
		return
	}
	h.scheduleLocked(gen)
	hit := h.rng.Float64() < h.probability
	h.mu.Unlock()

	if hit {
		h.trigger()
	}
}

// onHazardTick is the scheduler trigger. It re-checks the hazard guard
// under the controller lock.
func (c *Controller) onHazardTick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tornDown || c.state != StateDegraded || !c.power.Present() {
		c.logger.Debug("hazard tick skipped", "fixture", c.cfg.ID, "state", c.state.String(), "power", c.power.String())
		return
	}
	c.fireHazard()
}

// fireHazard ignites the surroundings and publishes a hazard record.
// Callers hold mu.
func (c *Controller) fireHazard() {
	c.collab.Hazards.HazardTriggered(HazardEvent{
		FixtureID: c.cfg.ID,
		Position:  c.cfg.Position,
		Intensity: c.cfg.HazardIntensity,
	})
	c.collab.Cues.PlayCue(CueEvent{FixtureID: c.cfg.ID, Cue: CueSparks, Position: c.cfg.Position})
	c.publish(RecordHazard, c.state, c.state)
}
