package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SwitchView is the API representation of a wall switch.
type SwitchView struct {
	ID          string `json:"id"`
	On          bool   `json:"on"`
	Subscribers int    `json:"subscribers"`
}

// ToggleRequest is the body of POST /switches/{id}/toggle. Without On the
// switch flips.
type ToggleRequest struct {
	On *bool `json:"on"`
}

// handleListSwitches lists the switchboard.
func (s *Server) handleListSwitches(w http.ResponseWriter, _ *http.Request) {
	board := s.registry.Switches()
	switches := []SwitchView{}
	if board != nil {
		for _, id := range board.List() {
			if sw, ok := board.Get(id); ok {
				switches = append(switches, SwitchView{ID: id, On: sw.On(), Subscribers: sw.Subscribers()})
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"switches": switches,
		"count":    len(switches),
	})
}

// handleToggleSwitch sets or flips a switch; linked fixtures follow.
func (s *Server) handleToggleSwitch(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	board := s.registry.Switches()
	if board == nil {
		writeNotFound(w, "switch not found")
		return
	}
	id := chi.URLParam(r, "id")
	sw, ok := board.Get(id)
	if !ok {
		writeNotFound(w, "switch not found")
		return
	}

	if req.On == nil {
		sw.Flip()
	} else {
		sw.Toggle(*req.On)
	}
	writeJSON(w, http.StatusOK, SwitchView{ID: id, On: sw.On(), Subscribers: sw.Subscribers()})
}
