package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"fintrack/internal/log"
	"fintrack/internal/store"
	"fintrack/internal/transfer"
)

type importResponse struct {
	store.ImportResult
	Format transfer.Format `json:"format"`
}

// handleImport reads an import file from the request body and applies it
// in the mode named by ?mode=, merge by default.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	mode, err := parseImportMode(r.URL.Query())
	if err != nil {
		s.writeError(w, r, log.OpImport, err)
		return
	}

	set, format, err := transfer.Parse(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: import exceeds %d bytes", errBadRequest, tooLarge.Limit)
		}
		s.writeError(w, r, log.OpImport, err)
		return
	}

	res, err := s.tracker.Import(r.Context(), set, mode)
	if err != nil {
		s.writeError(w, r, log.OpImport, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Import applied",
		log.FieldMode, string(mode),
		"format", string(format),
		log.FieldCount, res.Transactions,
		"dropped", res.Dropped)
	NewJSONResponse().Body(importResponse{ImportResult: res, Format: format}).Write(w)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := transfer.WriteCSV(&buf, s.tracker.Transactions()); err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	NewJSONResponse().
		Attachment(transfer.CSVFilename(s.now())).
		Raw("text/csv; charset=utf-8", buf.Bytes()).
		Write(w)
}

// handleExportJSON serves the flat transaction-centred export.
func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	ds, _ := s.tracker.Snapshot()
	now := s.now()
	export, err := transfer.NewTransactionExport(ds, now)
	if err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	s.writeExport(w, r, transfer.TransactionsFilename(now), export)
}

// handleExportBackup serves the complete export, which restores every
// collection on import.
func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	ds, _ := s.tracker.Snapshot()
	now := s.now()
	s.writeExport(w, r, transfer.BackupFilename(now), transfer.NewBackup(ds, now))
}

func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, filename string, v any) {
	var buf bytes.Buffer
	if err := transfer.WriteJSON(&buf, v); err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	NewJSONResponse().
		Attachment(filename).
		Raw("application/json; charset=utf-8", buf.Bytes()).
		Write(w)
}

func (s *Server) handleSampleData(w http.ResponseWriter, r *http.Request) {
	added, err := s.tracker.AddSampleData(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpSample, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(map[string]int{"added": added}).Write(w)
}
