package fixture

import (
	"sort"
	"sync"
)

// Switch is an in-process emitter. Toggles are delivered synchronously to
// every subscriber in subscription order.
type Switch struct {
	id string

	mu   sync.Mutex
	on   bool
	next uint64
	subs map[uint64]func(on bool)
}

// NewSwitch creates a switch in the given position.
func NewSwitch(id string, on bool) *Switch {
	return &Switch{id: id, on: on, subs: make(map[uint64]func(bool))}
}

// ID returns the switch identifier.
func (s *Switch) ID() string { return s.id }

// On reports the switch position.
func (s *Switch) On() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.on
}

// Subscribers returns the number of live subscriptions.
func (s *Switch) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Subscribe implements Emitter.
func (s *Switch) Subscribe(fn func(on bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	key := s.next
	s.subs[key] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, key)
			s.mu.Unlock()
		})
	}
}

// Toggle sets the switch position and notifies subscribers. Subscribers
// run without the switch lock held.
func (s *Switch) Toggle(on bool) {
	s.mu.Lock()
	s.on = on
	keys := make([]uint64, 0, len(s.subs))
	for k := range s.subs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	fns := make([]func(bool), 0, len(keys))
	for _, k := range keys {
		fns = append(fns, s.subs[k])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(on)
	}
}

// Flip inverts the switch position and returns the new position.
func (s *Switch) Flip() bool {
	on := !s.On()
	s.Toggle(on)
	return on
}

// Switchboard is a directory of switches keyed by id.
//
// Thread Safety: all methods are safe for concurrent use.
type Switchboard struct {
	mu       sync.RWMutex
	switches map[string]*Switch
}

// NewSwitchboard creates an empty switchboard.
func NewSwitchboard() *Switchboard {
	return &Switchboard{switches: make(map[string]*Switch)}
}

// Add returns the switch with the given id, creating it in position on
// if it does not exist yet.
func (b *Switchboard) Add(id string, on bool) *Switch {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sw, ok := b.switches[id]; ok {
		return sw
	}
	sw := NewSwitch(id, on)
	b.switches[id] = sw
	return sw
}

// Get returns the switch with the given id.
func (b *Switchboard) Get(id string) (*Switch, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sw, ok := b.switches[id]
	return sw, ok
}

// Lookup implements EmitterDirectory.
func (b *Switchboard) Lookup(id string) (Emitter, bool) {
	sw, ok := b.Get(id)
	if !ok {
		return nil, false
	}
	return sw, true
}

// List returns all switch ids in sorted order.
func (b *Switchboard) List() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.switches))
	for id := range b.switches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
