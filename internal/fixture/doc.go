// Package fixture provides the light mount controller for Lightmount Core.
//
// A fixture is a grid-powered light mount that reconciles four independent
// event sources into one authoritative, replicated state:
//
//   - grid power notifications (PowerChanged)
//   - integrity reports from the damage system (ReportDamage)
//   - interaction requests from actors (Interact)
//   - toggles from an optional linked switch (SetLink / ClearLink)
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────────────┐
//	│                          Controller (gate.go)                         │
//	│                                                                       │
//	│  power.go ─┐                                                          │
//	│  damage.go ├─▶ Event ─▶ Transition (machine.go) ─▶ (state, effects)  │
//	│  interaction.go ┘               pure, no I/O                          │
//	│  link.go ──┘                                                          │
//	│                                                                       │
//	│  commit ─▶ Record stream (observers, commit order)                    │
//	│        ─▶ effects ─▶ HazardScheduler / ItemSpawner / CueSink          │
//	└──────────────────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - State: the light mount state (on, off, emergency, degraded, ...)
//   - Profile / Catalog: static per-state configuration
//   - Event / Effect: inputs and side-effect instructions of Transition
//   - Controller: the single writer; only RoleAuthority may mutate
//   - Record: an immutable (old, new) entry of the replication stream
//   - HazardScheduler: periodic spark trials while degraded and powered
//   - LinkRegistry: at most one switch subscription at a time
//
// # Thread Safety
//
// Controller methods are safe for concurrent use; every mutation is
// serialised by the controller's mutex. Observers and collaborators are
// invoked while that mutex is held and must not call back into the
// controller.
package fixture
