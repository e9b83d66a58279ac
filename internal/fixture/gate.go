package fixture

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Role decides whether a controller may mutate its fixture.
type Role uint8

// Controller roles.
const (
	RoleAuthority Role = iota
	RoleReplica
)

func (r Role) String() string {
	if r == RoleReplica {
		return "replica"
	}
	return "authority"
}

// Defaults for Config.
const (
	DefaultBaseIntegrity  = 100.0
	DefaultMaxTouchDamage = 3.0
)

// Config holds the per-fixture settings.
type Config struct {
	ID       string
	Role     Role
	Position Position

	// InitialState is the state a fixture spawned with a module starts in
	// (StateOn or StateOff).
	InitialState State

	// HasSwitch makes the initial switch intent follow InitialState.
	// Without a switch the intent starts on.
	HasSwitch bool

	DefaultPower      PowerLevel
	BaseIntegrity     float64
	HazardInterval    time.Duration
	HazardProbability float64
	HazardIntensity   float64
	MaxTouchDamage    float64

	// Seed seeds the random sources. Zero picks a random seed.
	Seed uint64
}

// DefaultConfig returns an authoritative configuration with default values.
func DefaultConfig(id string) Config {
	return Config{
		ID:                id,
		Role:              RoleAuthority,
		InitialState:      StateOn,
		DefaultPower:      PowerNominal,
		BaseIntegrity:     DefaultBaseIntegrity,
		HazardInterval:    DefaultHazardInterval,
		HazardProbability: DefaultHazardProbability,
		HazardIntensity:   DefaultHazardIntensity,
		MaxTouchDamage:    DefaultMaxTouchDamage,
	}
}

// Dependencies are the shared services a controller uses.
type Dependencies struct {
	Catalog       *Catalog
	Clock         Clock
	Emitters      EmitterDirectory
	Collaborators Collaborators

	// SnapshotChanged is called with the fixture id when the snapshot
	// changes without publishing a record (power level in a guarded
	// state, an ignored toggle, a link change). It runs with the
	// controller lock held and must not block.
	SnapshotChanged func(id string)
}

// effectContext carries request-specific data needed to dispatch effects.
type effectContext struct {
	actorID     string
	destination Destination
	position    *Position
}

// Controller owns one fixture. It is the only writer of the fixture state
// when its role is RoleAuthority; replicas only follow the record stream.
//
// Every mutation runs under mu in this order: update the aggregate,
// recompute the integrity threshold, publish the record to observers,
// dispatch effects.
//
// Thread Safety: all methods are safe for concurrent use.
type Controller struct {
	cfg     Config
	catalog *Catalog
	collab  Collaborators
	clock   Clock
	logger  Logger

	mu              sync.Mutex
	rng             *rand.Rand
	spawned         bool
	tornDown        bool
	state           State
	power           PowerLevel
	switchIntent    bool
	threshold       float64
	thresholdActive bool
	seq             uint64
	observers       []Observer
	onSnapshot      func(id string)

	hazard *HazardScheduler
	link   *LinkRegistry
}

// NewController creates an unspawned controller.
//
// Parameters:
//   - cfg: per-fixture settings; zero numeric fields take defaults
//   - deps: catalog, clock, emitter directory and collaborators (nil fields
//     take defaults)
//
// Returns:
//   - *Controller: ready for Spawn or Restore (authority) or Replicate (replica)
func NewController(cfg Config, deps Dependencies) *Controller {
	cfg = cfg.withDefaults()
	if deps.Catalog == nil {
		deps.Catalog = DefaultCatalog()
	}
	if deps.Clock == nil {
		deps.Clock = RealClock()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	c := &Controller{
		cfg:          cfg,
		catalog:      deps.Catalog,
		collab:       deps.Collaborators.withDefaults(),
		clock:        deps.Clock,
		logger:       noopLogger{},
		rng:          rand.New(rand.NewPCG(seed, seed^0x5eed)),
		state:        StateUninitialized,
		power:        cfg.DefaultPower,
		switchIntent: !cfg.HasSwitch || cfg.InitialState == StateOn,
		link:         NewLinkRegistry(deps.Emitters),
		onSnapshot:   deps.SnapshotChanged,
	}
	c.hazard = NewHazardScheduler(deps.Clock, cfg.HazardInterval, cfg.HazardProbability,
		rand.New(rand.NewPCG(seed+1, seed^0xa11ce)), c.onHazardTick)
	return c
}

func (cfg Config) withDefaults() Config {
	if cfg.InitialState != StateOff && cfg.InitialState != StateModuleAbsent {
		cfg.InitialState = StateOn
	}
	if cfg.BaseIntegrity <= 0 {
		cfg.BaseIntegrity = DefaultBaseIntegrity
	}
	if cfg.HazardInterval <= 0 {
		cfg.HazardInterval = DefaultHazardInterval
	}
	if cfg.HazardIntensity <= 0 {
		cfg.HazardIntensity = DefaultHazardIntensity
	}
	if cfg.MaxTouchDamage < 0 {
		cfg.MaxTouchDamage = DefaultMaxTouchDamage
	}
	return cfg
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger
}

// AddObserver subscribes o to the record stream.
func (c *Controller) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// ID returns the fixture identifier.
func (c *Controller) ID() string { return c.cfg.ID }

// Role returns the controller role.
func (c *Controller) Role() Role { return c.cfg.Role }

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HazardStatus returns the hazard scheduler state.
func (c *Controller) HazardStatus() HazardStatus {
	return c.hazard.Status()
}

// Threshold returns the integrity degrade threshold and whether damage
// can currently trigger a transition.
func (c *Controller) Threshold() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threshold, c.thresholdActive
}

// Snapshot returns the persisted form of the fixture.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		ID:           c.cfg.ID,
		State:        c.state,
		Power:        c.power,
		SwitchIntent: c.switchIntent,
		LinkedSwitch: c.link.EmitterID(),
		Position:     c.cfg.Position,
		Seq:          c.seq,
		Hazard:       c.hazard.Status().String(),
	}
}

// Spawn creates the fixture, with or without a module in the mount.
// The first record of the stream is Uninitialized -> initial state.
func (c *Controller) Spawn(hasModule bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkMutable("spawn"); err != nil {
		return err
	}
	if c.spawned {
		return ErrAlreadySpawned
	}

	initial := c.cfg.InitialState
	if !hasModule {
		initial = StateModuleAbsent
	}
	c.spawned = true
	c.commit(initial, nil, effectContext{})
	c.logger.Info("fixture spawned", "fixture", c.cfg.ID, "state", initial.String())
	return nil
}

// Restore rebuilds a spawned fixture from a snapshot without publishing a
// record. The stream continues from snap.Seq.
func (c *Controller) Restore(snap Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkMutable("restore"); err != nil {
		return err
	}
	if c.spawned {
		return ErrAlreadySpawned
	}
	if snap.State == StateUninitialized {
		return fmt.Errorf("%w: cannot restore %s", ErrInvalidState, snap.State)
	}

	c.spawned = true
	c.state = snap.State
	c.power = snap.Power
	c.switchIntent = snap.SwitchIntent
	c.seq = snap.Seq
	c.recomputeThreshold()

	if c.state == StateDegraded && c.power.Present() {
		c.hazard.Arm()
	}
	if snap.LinkedSwitch != "" {
		if err := c.link.Set(snap.LinkedSwitch, c.deliverToggle); err != nil {
			c.logger.Warn("restoring link failed", "fixture", c.cfg.ID, "switch", snap.LinkedSwitch, "error", err)
		}
	}
	c.logger.Info("fixture restored", "fixture", c.cfg.ID, "state", c.state.String(), "seq", c.seq)
	return nil
}

// Despawn tears the fixture down: it drops the loot of the current state,
// stops the hazard scheduler and severs the link. Every later call fails
// with ErrTornDown.
func (c *Controller) Despawn() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkMutable("despawn"); err != nil {
		return err
	}

	c.hazard.Disarm()
	c.link.Clear()
	c.collab.Spawner.SpawnItem(SpawnRequest{
		FixtureID:   c.cfg.ID,
		ItemID:      c.catalog.Profile(c.state).LootID,
		Position:    c.cfg.Position,
		Destination: DestinationFloor,
		Reason:      "loot",
	})
	c.tornDown = true
	c.logger.Info("fixture despawned", "fixture", c.cfg.ID, "state", c.state.String())
	return nil
}

// Replicate applies a record from the authority's stream to a replica.
// Records must arrive with consecutive sequence numbers.
func (c *Controller) Replicate(rec Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.Role != RoleReplica {
		c.logger.Error("replicate called on authority", "fixture", c.cfg.ID, "seq", rec.Seq)
		return fmt.Errorf("%w: authority does not follow a stream", ErrUnauthorizedMutation)
	}
	if rec.FixtureID != c.cfg.ID {
		return fmt.Errorf("%w: record for %s on replica %s", ErrOutOfOrder, rec.FixtureID, c.cfg.ID)
	}
	if rec.Seq != c.seq+1 {
		return fmt.Errorf("%w: got seq %d, want %d", ErrOutOfOrder, rec.Seq, c.seq+1)
	}

	c.seq = rec.Seq
	c.spawned = true
	c.power = rec.Power
	if rec.Kind == RecordTransition {
		c.state = rec.New
		c.recomputeThreshold()
	}
	for _, o := range c.observers {
		o.Observe(rec)
	}
	return nil
}

// checkMutable enforces the single-writer rule and lifecycle. Callers hold mu.
func (c *Controller) checkMutable(op string) error {
	if c.cfg.Role != RoleAuthority {
		c.logger.Error("mutation refused on replica", "fixture", c.cfg.ID, "op", op)
		return fmt.Errorf("%s on %s: %w", op, c.cfg.ID, ErrUnauthorizedMutation)
	}
	if c.tornDown {
		return ErrTornDown
	}
	if op != "spawn" && op != "restore" && !c.spawned {
		return ErrNotSpawned
	}
	return nil
}

func (c *Controller) inputs() Inputs {
	return Inputs{SwitchIntent: c.switchIntent, Power: c.power}
}

// apply runs ev through Transition and commits the result. Callers hold mu.
func (c *Controller) apply(ev Event, ectx effectContext) State {
	next, effects := Transition(c.state, c.inputs(), ev)
	if next == c.state && len(effects) == 0 {
		c.logger.Debug("transition ignored", "fixture", c.cfg.ID, "state", c.state.String(), "event", ev.String())
		return c.state
	}
	c.commit(next, effects, ectx)
	return next
}

func (c *Controller) commit(next State, effects []Effect, ectx effectContext) {
	old := c.state
	c.state = next
	c.recomputeThreshold()
	if old != next {
		c.publish(RecordTransition, old, next)
	}
	for _, eff := range effects {
		c.dispatch(old, eff, ectx)
	}
}

// snapshotChanged reports a silent snapshot change when no record was
// published since seq was before. Callers hold mu.
func (c *Controller) snapshotChanged(before uint64) {
	if c.onSnapshot != nil && c.seq == before {
		c.onSnapshot(c.cfg.ID)
	}
}

func (c *Controller) recomputeThreshold() {
	c.threshold, c.thresholdActive = c.catalog.Threshold(c.state, c.cfg.BaseIntegrity)
}

func (c *Controller) publish(kind RecordKind, old, next State) {
	c.seq++
	rec := Record{
		Seq:       c.seq,
		FixtureID: c.cfg.ID,
		Kind:      kind,
		Old:       old,
		New:       next,
		Power:     c.power,
		At:        c.clock.Now().UTC(),
	}
	for _, o := range c.observers {
		o.Observe(rec)
	}
}

func (c *Controller) dispatch(old State, eff Effect, ectx effectContext) {
	pos := c.cfg.Position
	if ectx.position != nil {
		pos = *ectx.position
	}

	switch eff {
	case EffectEmitModule:
		module := c.catalog.Profile(old).Module
		if module == "" {
			return
		}
		dest := ectx.destination
		if dest == "" {
			dest = DestinationFloor
		}
		c.collab.Spawner.SpawnItem(SpawnRequest{
			FixtureID:   c.cfg.ID,
			ItemID:      module,
			Position:    pos,
			Destination: dest,
			ActorID:     ectx.actorID,
			Reason:      "module_removed",
		})
	case EffectSpawnDebris:
		c.collab.Spawner.SpawnItem(SpawnRequest{
			FixtureID:   c.cfg.ID,
			ItemID:      DebrisItem,
			Position:    c.cfg.Position,
			Destination: DestinationFloor,
			Reason:      "debris",
		})
	case EffectStartHazard:
		if c.hazard.Arm() {
			c.logger.Debug("hazard armed", "fixture", c.cfg.ID)
		}
	case EffectStopHazard:
		if c.hazard.Disarm() {
			c.logger.Debug("hazard disarmed", "fixture", c.cfg.ID)
		}
	case EffectDestructionCue:
		c.collab.Cues.PlayCue(CueEvent{FixtureID: c.cfg.ID, Cue: CueShatter, Position: c.cfg.Position})
	}
}
