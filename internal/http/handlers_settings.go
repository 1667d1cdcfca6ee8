package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.tracker.Settings()).Write(w)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch core.SettingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	settings, err := s.tracker.UpdateSettings(r.Context(), patch)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(settings).Write(w)
}

func (s *Server) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.tracker.Categories()).Write(w)
}

// handleUpdateCategories replaces the category lists present in the body.
func (s *Server) handleUpdateCategories(w http.ResponseWriter, r *http.Request) {
	var patch core.Categories
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	categories, err := s.tracker.UpdateCategories(r.Context(), patch)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(categories).Write(w)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.ResetDefaults(r.Context()); err != nil {
		s.writeError(w, r, log.OpReset, err)
		return
	}
	NewJSONResponse().Body(s.tracker.Settings()).Write(w)
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.ClearAll(r.Context()); err != nil {
		s.writeError(w, r, log.OpClear, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
