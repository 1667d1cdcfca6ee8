package http

import (
	"net/http"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/report"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(report.BudgetViews(s.tracker.Budgets(), s.tracker.Transactions())).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := decodeJSON(w, r, &b); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	created, err := s.tracker.CreateBudget(r.Context(), sanitizeBudget(b))
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/budgets/"+strconv.FormatInt(created.ID, 10)).
		Body(s.budgetView(created)).
		Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	b, ok := s.tracker.Budget(id)
	if !ok {
		NotFoundError("budget " + strconv.FormatInt(id, 10) + " not found").Write(w)
		return
	}
	NewJSONResponse().Body(s.budgetView(b)).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	var b core.Budget
	if err := decodeJSON(w, r, &b); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	updated, err := s.tracker.UpdateBudget(r.Context(), id, sanitizeBudget(b))
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(s.budgetView(updated)).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.tracker.DeleteBudget(r.Context(), id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) budgetView(b core.Budget) report.BudgetView {
	return report.BudgetView{Budget: b, Progress: ledger.BudgetProgress(b, s.tracker.Transactions())}
}
