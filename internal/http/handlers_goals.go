package http

import (
	"net/http"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/report"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(report.GoalViews(s.tracker.Goals(), s.tracker.Today())).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.Goal
	if err := decodeJSON(w, r, &g); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	created, err := s.tracker.CreateGoal(r.Context(), sanitizeGoal(g))
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/goals/"+strconv.FormatInt(created.ID, 10)).
		Body(s.goalView(created)).
		Write(w)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	g, ok := s.tracker.Goal(id)
	if !ok {
		NotFoundError("goal " + strconv.FormatInt(id, 10) + " not found").Write(w)
		return
	}
	NewJSONResponse().Body(s.goalView(g)).Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	var g core.Goal
	if err := decodeJSON(w, r, &g); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	updated, err := s.tracker.UpdateGoal(r.Context(), id, sanitizeGoal(g))
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(s.goalView(updated)).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.tracker.DeleteGoal(r.Context(), id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, log.OpContribute, err)
		return
	}
	var req contributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpContribute, err)
		return
	}
	g, err := s.tracker.Contribute(r.Context(), id, req.Amount)
	if err != nil {
		s.writeError(w, r, log.OpContribute, err)
		return
	}
	NewJSONResponse().Body(s.goalView(g)).Write(w)
}

func (s *Server) goalView(g core.Goal) report.GoalView {
	return report.GoalView{Goal: g, Progress: ledger.GoalProgress(g, s.tracker.Today())}
}
