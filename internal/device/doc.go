// Package device provides the fixture registry for Lightmount Core.
//
// The registry owns the authoritative fixture controllers of a site,
// persists their snapshots and record history in SQLite, and restores them
// on startup.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────────┐
//	│                          Fixture Registry                        │
//	│                                                                  │
//	│  ┌──────────────────┐    ┌──────────────────┐    ┌────────────┐  │
//	│  │     Registry     │    │     Recorder     │    │ Repository │  │
//	│  │  (registry.go)   │───▶│  (recorder.go)   │───▶│  (SQLite)  │  │
//	│  │                  │    │                  │    │            │  │
//	│  │ • Spawn/Despawn  │    │ • buffered queue │    │ • fixtures │  │
//	│  │ • controllers    │    │ • single worker  │    │ • records  │  │
//	│  │ • restore        │    │ • commit order   │    │            │  │
//	│  └──────────────────┘    └──────────────────┘    └────────────┘  │
//	└──────────────────────────────────────────────────────────────────┘
//	            ▲
//	            │ power / damage / interaction / link
//	   MQTT bridge, REST API
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db.DB)
//	registry := device.NewRegistry(repo, device.Options{Template: tmpl, Switches: board})
//	registry.Start()
//	defer registry.Close()
//
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//	f, err := registry.Spawn(ctx, device.SpawnRequest{Name: "Corridor 1"})
package device
