package http

import (
	"net/http"
	"strconv"

	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/query"
)

// transactionPage is one page of the filtered log plus the navigation
// flags and the category names available for filtering.
type transactionPage struct {
	query.Page
	HasNext    bool          `json:"hasNext"`
	HasPrev    bool          `json:"hasPrev"`
	Stats      ledger.Totals `json:"stats"`
	Categories []string      `json:"categories"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	pageSize := s.tracker.Settings().ItemsPerPage
	if pageSize < 1 {
		pageSize = query.DefaultPageSize
	}
	params, err := ParseListParams(r.URL.Query(), pageSize)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}

	txs := s.tracker.Transactions()
	view := query.Apply(txs, params.Params, s.tracker.Today())
	page, err := query.Paginate(view, params.Page, params.PageSize)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	categories := query.Categories(txs)
	if categories == nil {
		categories = []string{}
	}
	NewJSONResponse().Body(transactionPage{
		Page:       page,
		HasNext:    page.HasNext(),
		HasPrev:    page.HasPrev(),
		Stats:      query.Stats(view),
		Categories: categories,
	}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	tx, err := s.tracker.AddTransaction(r.Context(), req.transaction())
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+strconv.FormatInt(tx.ID, 10)).
		Body(tx).
		Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	tx, ok := s.tracker.Transaction(id)
	if !ok {
		NotFoundError("transaction " + strconv.FormatInt(id, 10) + " not found").Write(w)
		return
	}
	NewJSONResponse().Body(tx).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	tx, err := s.tracker.UpdateTransaction(r.Context(), id, req.transaction())
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(tx).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.tracker.DeleteTransaction(r.Context(), id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleBulkDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpBulkDelete, err)
		return
	}
	removed, err := s.tracker.DeleteTransactions(r.Context(), req.IDs)
	if err != nil {
		s.writeError(w, r, log.OpBulkDelete, err)
		return
	}
	NewJSONResponse().Body(map[string]int{"deleted": removed}).Write(w)
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.ClearTransactions(r.Context()); err != nil {
		s.writeError(w, r, log.OpClear, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
