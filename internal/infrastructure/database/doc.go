// Package database provides SQLite connectivity for Lightmount Core.
//
// This package manages:
//   - The connection (WAL mode, busy timeout, single writer)
//   - Schema migrations registered from the migrations package
//   - Transaction helpers
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive: new columns are nullable or have defaults, and
// every .up.sql has a matching .down.sql.
package database
