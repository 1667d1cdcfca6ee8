// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating HTTP request data:
// JSON bodies, path IDs and the transaction list query string.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/query"
	"fintrack/internal/store"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 10 << 20
)

var errBadRequest = errors.New("bad request")

// ListParams is the parsed transaction list query.
type ListParams struct {
	query.Params
	Page     int
	PageSize int
}

// decodeJSON reads a single JSON document from the request body into v.
// Amount and date decoding failures are reported as validation errors on
// that field; anything else is a bad request.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var parseErr *time.ParseError
		switch {
		case errors.Is(err, core.ErrInvalidAmount):
			return &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
		case errors.As(err, &parseErr):
			return &core.ValidationError{Field: "date", Err: err}
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty request body", errBadRequest)
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body exceeds %d bytes", errBadRequest, tooLarge.Limit)
		}
		return fmt.Errorf("%w: malformed JSON: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON document", errBadRequest)
	}
	return nil
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

// ParseListParams reads search, type, category, period, sort, page and
// pageSize. A missing page is 1 and a missing pageSize is defaultSize.
func ParseListParams(q url.Values, defaultSize int) (ListParams, error) {
	p := ListParams{
		Params: query.Params{
			Search:   sanitizeInput(q.Get("search")),
			Type:     strings.TrimSpace(q.Get("type")),
			Category: sanitizeInput(q.Get("category")),
			Period:   strings.TrimSpace(q.Get("period")),
			Sort:     strings.TrimSpace(q.Get("sort")),
		},
	}
	if err := p.Params.Validate(); err != nil {
		return ListParams{}, err
	}

	var err error
	if p.Page, err = intParam(q, "page", 1, 1, 1<<20); err != nil {
		return ListParams{}, err
	}
	if p.PageSize, err = intParam(q, "pageSize", defaultSize, 1, 500); err != nil {
		return ListParams{}, err
	}
	return p, nil
}

// intParam parses an optional integer query parameter within [lo, hi].
func intParam(q url.Values, key string, def, lo, hi int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, key)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %s must be between %d and %d", errBadRequest, key, lo, hi)
	}
	return n, nil
}

// parseImportMode reads the import mode, merge when absent.
func parseImportMode(q url.Values) (store.ImportMode, error) {
	v := strings.ToLower(strings.TrimSpace(q.Get("mode")))
	if v == "" {
		return store.Merge, nil
	}
	mode := store.ImportMode(v)
	if !mode.Valid() {
		return "", fmt.Errorf("%w: mode must be %q or %q", errBadRequest, store.Replace, store.Merge)
	}
	return mode, nil
}

// parseTxType reads an optional income/expense selector.
func parseTxType(q url.Values, def core.TxType) (core.TxType, error) {
	v := strings.ToLower(strings.TrimSpace(q.Get("type")))
	if v == "" {
		return def, nil
	}
	t := core.TxType(v)
	if !t.Valid() {
		return "", fmt.Errorf("%w: type must be %q or %q", errBadRequest, core.Income, core.Expense)
	}
	return t, nil
}
