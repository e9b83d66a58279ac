package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/lightmount-core/internal/device"
	"github.com/nerrad567/lightmount-core/internal/fixture"
)

// maxHistoryLimit caps the history query parameter.
const maxHistoryLimit = 500

// PowerRequest is the body of POST /fixtures/{id}/power.
type PowerRequest struct {
	Level *fixture.PowerLevel `json:"level"`
}

// LinkRequest is the body of PUT /fixtures/{id}/link.
type LinkRequest struct {
	Switch string `json:"switch"`
}

// handleListFixtures returns every live fixture, sorted by ID.
func (s *Server) handleListFixtures(w http.ResponseWriter, r *http.Request) {
	fixtures := s.registry.List()

	if raw := r.URL.Query().Get("state"); raw != "" {
		want, err := fixture.ParseState(raw)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		filtered := fixtures[:0]
		for _, f := range fixtures {
			if f.State == want {
				filtered = append(filtered, f)
			}
		}
		fixtures = filtered
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fixtures": fixtures,
		"count":    len(fixtures),
	})
}

// handleSpawnFixture creates and spawns a fixture.
func (s *Server) handleSpawnFixture(w http.ResponseWriter, r *http.Request) {
	var req device.SpawnRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	f, err := s.registry.Spawn(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// handleGetFixture returns one fixture.
func (s *Server) handleGetFixture(w http.ResponseWriter, r *http.Request) {
	f, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// handleDespawnFixture tears a fixture down and deletes it.
func (s *Server) handleDespawnFixture(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Despawn(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFixtureHistory returns persisted records, newest first.
// The fixture need not be live; history outlives it.
func (s *Server) handleFixtureHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeBadRequest(w, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	id := chi.URLParam(r, "id")
	records, err := s.registry.History(r.Context(), id, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []fixture.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fixture_id": id,
		"records":    records,
		"count":      len(records),
	})
}

// handlePower forwards a power level change.
func (s *Server) handlePower(w http.ResponseWriter, r *http.Request) {
	var req PowerRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Level == nil {
		writeBadRequest(w, "level is required")
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.registry.PowerChanged(id, *req.Level); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeFixture(w, id)
}

// handleDamage forwards a damage report.
func (s *Server) handleDamage(w http.ResponseWriter, r *http.Request) {
	var report fixture.DamageReport
	if err := decodeBody(r, &report, false); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.registry.ReportDamage(id, report); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeFixture(w, id)
}

// handleInteraction applies an actor interaction and returns its result.
// Refusals are results, not errors, and answer 200.
func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	var req fixture.InteractionRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	result, err := s.registry.Interact(chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSetLink links a fixture to a switch.
func (s *Server) handleSetLink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Switch == "" {
		writeBadRequest(w, "switch is required")
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.registry.SetLink(id, req.Switch); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeFixture(w, id)
}

// handleClearLink removes a fixture's switch link.
func (s *Server) handleClearLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.registry.ClearLink(id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeFixture(w, id)
}

func (s *Server) writeFixture(w http.ResponseWriter, id string) {
	f, err := s.registry.Get(id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}
