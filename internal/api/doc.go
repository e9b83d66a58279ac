// Package api implements the HTTP REST API and WebSocket server.
//
// This package provides:
//   - REST endpoints to spawn, inspect and despawn fixtures
//   - Endpoints forwarding power, damage, interaction and link inputs
//   - Switchboard listing and toggling
//   - WebSocket hub broadcasting fixture records in commit order
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Routes
//
//	GET    /api/v1/health
//	GET    /api/v1/metrics
//	GET    /api/v1/fixtures[?state=on]
//	POST   /api/v1/fixtures
//	GET    /api/v1/fixtures/{id}
//	DELETE /api/v1/fixtures/{id}
//	GET    /api/v1/fixtures/{id}/history[?limit=50]
//	POST   /api/v1/fixtures/{id}/power
//	POST   /api/v1/fixtures/{id}/damage
//	POST   /api/v1/fixtures/{id}/interactions
//	PUT    /api/v1/fixtures/{id}/link
//	DELETE /api/v1/fixtures/{id}/link
//	GET    /api/v1/switches
//	POST   /api/v1/switches/{id}/toggle
//	GET    /api/v1/ws[?channels=fixture.state_changed,fixture.hazard]
//
// # Graceful Degradation
//
// MQTT and the database handle are optional; /health reports them when set.
package api
