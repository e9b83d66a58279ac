package device

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/lightmount-core/internal/fixture"
	"github.com/nerrad567/lightmount-core/internal/infrastructure/config"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Registry.
type Options struct {
	// Template is copied for every fixture; ID and Position are replaced.
	Template fixture.Config

	Catalog       *fixture.Catalog
	Clock         fixture.Clock
	Switches      *fixture.Switchboard
	Collaborators fixture.Collaborators

	// Observers receive the record stream of every fixture (state topics,
	// websocket hub, time-series writer).
	Observers []fixture.Observer

	RecorderBuffer int
}

// TemplateFromConfig builds the per-fixture template from the fixture
// section of the configuration.
func TemplateFromConfig(cfg config.FixtureConfig) (fixture.Config, error) {
	tmpl := fixture.DefaultConfig("")

	if cfg.InitialState != "" {
		state, err := fixture.ParseState(cfg.InitialState)
		if err != nil {
			return tmpl, err
		}
		tmpl.InitialState = state
	}
	if cfg.DefaultPower != "" {
		power, err := fixture.ParsePowerLevel(cfg.DefaultPower)
		if err != nil {
			return tmpl, err
		}
		tmpl.DefaultPower = power
	}

	tmpl.HasSwitch = cfg.HasSwitch
	tmpl.BaseIntegrity = cfg.BaseIntegrity
	tmpl.HazardInterval = cfg.HazardInterval
	tmpl.HazardProbability = cfg.HazardProbability
	tmpl.HazardIntensity = cfg.HazardIntensity
	tmpl.MaxTouchDamage = cfg.MaxTouchDamage
	return tmpl, nil
}

type entry struct {
	ctrl      *fixture.Controller
	name      string
	createdAt time.Time
}

// Registry owns the authoritative controllers of a site and keeps their
// snapshots and history in the Repository.
//
// RefreshCache restores persisted fixtures on startup. Every committed
// record is persisted asynchronously by the Recorder.
//
// All public methods are thread-safe.
type Registry struct {
	repo     Repository
	opts     Options
	recorder *Recorder
	logger   Logger

	mu       sync.RWMutex
	fixtures map[string]*entry
}

// NewRegistry creates a fixture registry. Call Start before spawning and
// Close on shutdown.
func NewRegistry(repo Repository, opts Options) *Registry {
	if opts.Catalog == nil {
		opts.Catalog = fixture.DefaultCatalog()
	}
	if opts.Clock == nil {
		opts.Clock = fixture.RealClock()
	}
	r := &Registry{
		repo:     repo,
		opts:     opts,
		logger:   noopLogger{},
		fixtures: make(map[string]*entry),
	}
	r.recorder = NewRecorder(repo, opts.RecorderBuffer, r.snapshot)
	return r
}

// SetLogger sets the logger for the registry, its recorder and every
// controller created afterwards.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
	r.recorder.SetLogger(logger)
}

// Start launches the history recorder.
func (r *Registry) Start() {
	r.recorder.Start()
}

// Close flushes pending history writes. Controllers are left running.
func (r *Registry) Close() {
	r.recorder.Stop()
}

// Switches returns the switchboard fixtures link to (may be nil).
func (r *Registry) Switches() *fixture.Switchboard {
	return r.opts.Switches
}

func (r *Registry) newController(cfg fixture.Config) *fixture.Controller {
	deps := fixture.Dependencies{
		Catalog:         r.opts.Catalog,
		Clock:           r.opts.Clock,
		Collaborators:   r.opts.Collaborators,
		SnapshotChanged: r.recorder.Touch,
	}
	if r.opts.Switches != nil {
		deps.Emitters = r.opts.Switches
	}

	ctrl := fixture.NewController(cfg, deps)
	ctrl.SetLogger(r.logger)
	for _, o := range r.opts.Observers {
		ctrl.AddObserver(o)
	}
	ctrl.AddObserver(r.recorder)
	return ctrl
}

func (r *Registry) snapshot(id string) (fixture.Snapshot, bool) {
	r.mu.RLock()
	e, ok := r.fixtures[id]
	r.mu.RUnlock()
	if !ok {
		return fixture.Snapshot{}, false
	}
	return e.ctrl.Snapshot(), true
}

// RefreshCache restores every persisted fixture that is not loaded yet.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	stored, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading fixtures: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	restored := 0
	for i := range stored {
		f := &stored[i]
		if _, ok := r.fixtures[f.ID]; ok {
			continue
		}

		cfg := r.opts.Template
		cfg.ID = f.ID
		cfg.Position = f.Position
		ctrl := r.newController(cfg)
		if err := ctrl.Restore(f.Snapshot()); err != nil {
			r.logger.Warn("skipping unrestorable fixture", "fixture", f.ID, "state", f.State.String(), "error", err)
			continue
		}
		r.fixtures[f.ID] = &entry{ctrl: ctrl, name: f.Name, createdAt: f.CreatedAt}
		restored++
	}

	r.logger.Info("fixture cache refreshed", "stored", len(stored), "restored", restored)
	return nil
}

// Spawn creates, persists and spawns a fixture.
//
// Parameters:
//   - ctx: Context for the persistence calls
//   - req: Fixture description; an empty ID is generated
//
// Returns:
//   - *Fixture: The spawned fixture
//   - error: ErrInvalidFixture, ErrFixtureExists or a persistence error
func (r *Registry) Spawn(ctx context.Context, req SpawnRequest) (*Fixture, error) {
	if err := ValidateSpawnRequest(&req); err != nil {
		return nil, err
	}
	if req.LinkedSwitch != "" {
		if r.opts.Switches == nil {
			return nil, fmt.Errorf("%w: %w: %s", ErrInvalidFixture, fixture.ErrUnknownEmitter, req.LinkedSwitch)
		}
		if _, ok := r.opts.Switches.Lookup(req.LinkedSwitch); !ok {
			return nil, fmt.Errorf("%w: %w: %s", ErrInvalidFixture, fixture.ErrUnknownEmitter, req.LinkedSwitch)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.fixtures[req.ID]; ok {
		return nil, ErrFixtureExists
	}

	cfg := r.opts.Template
	cfg.ID = req.ID
	cfg.Position = req.Position
	hasModule := cfg.InitialState != fixture.StateModuleAbsent
	if req.HasModule != nil {
		hasModule = *req.HasModule
		if hasModule && cfg.InitialState == fixture.StateModuleAbsent {
			cfg.InitialState = fixture.StateOn
		}
	}
	ctrl := r.newController(cfg)

	f := &Fixture{ID: req.ID, Name: req.Name}
	f.apply(ctrl.Snapshot())
	if err := r.repo.Create(ctx, f); err != nil {
		return nil, err
	}

	if err := ctrl.Spawn(hasModule); err != nil {
		return nil, r.discardSpawn(ctx, req.ID, err)
	}
	if req.LinkedSwitch != "" {
		if err := ctrl.SetLink(req.LinkedSwitch); err != nil {
			r.logger.Warn("linking new fixture failed", "fixture", req.ID, "switch", req.LinkedSwitch, "error", err)
		}
	}

	f.apply(ctrl.Snapshot())
	if err := r.repo.Save(ctx, f); err != nil {
		r.logger.Warn("saving spawned fixture failed", "fixture", req.ID, "error", err)
	}

	r.fixtures[req.ID] = &entry{ctrl: ctrl, name: req.Name, createdAt: f.CreatedAt}
	r.logger.Info("fixture created", "fixture", req.ID, "state", f.State.String())
	return f, nil
}

// discardSpawn removes the provisional row of a fixture whose spawn failed
// and returns the wrapped spawn error.
func (r *Registry) discardSpawn(ctx context.Context, id string, cause error) error {
	if err := r.repo.Delete(ctx, id); err != nil && !errors.Is(err, ErrFixtureNotFound) {
		r.logger.Error("removing unspawned fixture failed", "fixture", id, "error", err)
	}
	return fmt.Errorf("spawning fixture %s: %w", id, cause)
}

// Despawn tears a fixture down (dropping its loot) and deletes it.
// Its history is kept.
func (r *Registry) Despawn(ctx context.Context, id string) error {
	r.mu.Lock()
	e, ok := r.fixtures[id]
	if ok {
		delete(r.fixtures, id)
	}
	r.mu.Unlock()

	if !ok {
		return ErrFixtureNotFound
	}

	if err := e.ctrl.Despawn(); err != nil && !errors.Is(err, fixture.ErrTornDown) {
		r.logger.Warn("despawn failed", "fixture", id, "error", err)
	}
	if err := r.repo.Delete(ctx, id); err != nil && !errors.Is(err, ErrFixtureNotFound) {
		return fmt.Errorf("deleting fixture %s: %w", id, err)
	}

	r.logger.Info("fixture deleted", "fixture", id)
	return nil
}

// Get returns the live view of a fixture.
func (r *Registry) Get(id string) (*Fixture, error) {
	r.mu.RLock()
	e, ok := r.fixtures[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrFixtureNotFound
	}
	return e.view(), nil
}

// List returns the live view of every fixture, ordered by ID.
func (r *Registry) List() []Fixture {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.fixtures))
	for _, e := range r.fixtures {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]Fixture, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e.view())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of live fixtures.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fixtures)
}

// Controller returns the controller of a fixture.
func (r *Registry) Controller(id string) (*fixture.Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.fixtures[id]
	if !ok {
		return nil, ErrFixtureNotFound
	}
	return e.ctrl, nil
}

// History returns the most recent persisted records of a fixture.
func (r *Registry) History(ctx context.Context, id string, limit int) ([]fixture.Record, error) {
	return r.repo.History(ctx, id, limit)
}

// PowerChanged forwards a power level notification.
func (r *Registry) PowerChanged(id string, level fixture.PowerLevel) error {
	ctrl, err := r.Controller(id)
	if err != nil {
		return err
	}
	return ctrl.PowerChanged(level)
}

// PowerChangedAll forwards a grid-wide power level to every fixture.
func (r *Registry) PowerChangedAll(level fixture.PowerLevel) {
	for _, f := range r.List() {
		if err := r.PowerChanged(f.ID, level); err != nil {
			r.logger.Warn("power change failed", "fixture", f.ID, "error", err)
		}
	}
}

// ReportDamage forwards a damage report.
func (r *Registry) ReportDamage(id string, report fixture.DamageReport) error {
	ctrl, err := r.Controller(id)
	if err != nil {
		return err
	}
	return ctrl.ReportDamage(report)
}

// Interact forwards an actor interaction.
func (r *Registry) Interact(id string, req fixture.InteractionRequest) (fixture.InteractionResult, error) {
	ctrl, err := r.Controller(id)
	if err != nil {
		return fixture.InteractionResult{}, err
	}
	return ctrl.Interact(req)
}

// SetLink links a fixture to a switch.
func (r *Registry) SetLink(id, switchID string) error {
	ctrl, err := r.Controller(id)
	if err != nil {
		return err
	}
	return ctrl.SetLink(switchID)
}

// ClearLink removes a fixture's switch link.
func (r *Registry) ClearLink(id string) error {
	ctrl, err := r.Controller(id)
	if err != nil {
		return err
	}
	return ctrl.ClearLink()
}

func (e *entry) view() *Fixture {
	f := &Fixture{ID: e.ctrl.ID(), Name: e.name, CreatedAt: e.createdAt}
	f.apply(e.ctrl.Snapshot())
	return f
}
