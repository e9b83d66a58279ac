package fixture

import "fmt"

// Emitter is a remote device that publishes on/off toggles.
type Emitter interface {
	// ID returns the emitter identifier.
	ID() string

	// Subscribe registers fn for toggles and returns a function that
	// removes the registration. The returned function is idempotent.
	Subscribe(fn func(on bool)) (unsubscribe func())
}

// EmitterDirectory resolves emitter identifiers.
type EmitterDirectory interface {
	Lookup(id string) (Emitter, bool)
}

// LinkRegistry holds at most one emitter subscription.
//
// Set always removes the previous subscription before subscribing to the
// new emitter. Each subscription carries a generation number; a toggle
// delivered with an older generation is stale and must be dropped by the
// receiver.
//
// LinkRegistry is not safe for concurrent use. The Controller serialises
// access under its own lock.
type LinkRegistry struct {
	directory EmitterDirectory

	emitterID   string
	unsubscribe func()
	gen         uint64
}

// NewLinkRegistry creates an empty registry. directory may be nil, in which
// case every Set fails with ErrUnknownEmitter.
func NewLinkRegistry(directory EmitterDirectory) *LinkRegistry {
	return &LinkRegistry{directory: directory}
}

// Set links to the emitter with the given id. deliver is called for each
// toggle along with the generation it was subscribed under.
//
// An unknown id leaves the current link untouched.
func (l *LinkRegistry) Set(id string, deliver func(gen uint64, on bool)) error {
	if l.directory == nil {
		return fmt.Errorf("%w: %s", ErrUnknownEmitter, id)
	}
	emitter, ok := l.directory.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEmitter, id)
	}

	l.Clear()

	l.gen++
	gen := l.gen
	l.emitterID = emitter.ID()
	l.unsubscribe = emitter.Subscribe(func(on bool) { deliver(gen, on) })
	return nil
}

// Clear drops the current subscription, if any.
func (l *LinkRegistry) Clear() {
	if l.unsubscribe != nil {
		l.unsubscribe()
	}
	l.unsubscribe = nil
	l.emitterID = ""
	l.gen++
}

// EmitterID returns the linked emitter id, or "" when unlinked.
func (l *LinkRegistry) EmitterID() string {
	return l.emitterID
}

// Current reports whether gen is the live subscription generation.
func (l *LinkRegistry) Current(gen uint64) bool {
	return l.unsubscribe != nil && gen == l.gen
}

// SetLink links the fixture to a switch, replacing any existing link.
func (c *Controller) SetLink(emitterID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkMutable("set_link"); err != nil {
		return err
	}
	prev := c.link.EmitterID()
	if err := c.link.Set(emitterID, c.deliverToggle); err != nil {
		return err
	}
	c.snapshotChanged(c.seq)
	c.logger.Info("fixture linked", "fixture", c.cfg.ID, "switch", emitterID, "previous", prev)
	return nil
}

// ClearLink removes the switch link, if any.
func (c *Controller) ClearLink() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkMutable("clear_link"); err != nil {
		return err
	}
	had := c.link.EmitterID() != ""
	c.link.Clear()
	if had {
		c.snapshotChanged(c.seq)
	}
	return nil
}

// LinkedSwitch returns the linked switch id, or "".
func (c *Controller) LinkedSwitch() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.link.EmitterID()
}

// LinkToggle applies a toggle reported directly by id. Toggles from any
// switch other than the linked one are ignored.
func (c *Controller) LinkToggle(emitterID string, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkMutable("link_toggle"); err != nil {
		return err
	}
	if emitterID == "" || emitterID != c.link.EmitterID() {
		c.logger.Debug("toggle from unlinked switch ignored", "fixture", c.cfg.ID, "switch", emitterID)
		return nil
	}
	c.toggle(on)
	return nil
}

// deliverToggle is the subscription callback handed to the LinkRegistry.
func (c *Controller) deliverToggle(gen uint64, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.checkMutable("toggle") != nil || !c.link.Current(gen) {
		c.logger.Debug("stale toggle dropped", "fixture", c.cfg.ID, "gen", gen)
		return
	}
	c.toggle(on)
}

// toggle records the switch intent, then applies SwitchToggled. An ignored
// toggle still reports the intent change. Callers hold mu.
func (c *Controller) toggle(on bool) {
	before := c.seq
	c.switchIntent = on
	c.apply(SwitchToggled(on), effectContext{})
	c.snapshotChanged(before)
}

// SwitchIntent returns the last commanded on/off request.
func (c *Controller) SwitchIntent() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.switchIntent
}
