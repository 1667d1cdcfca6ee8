package query

import (
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// Page is one slice of a filtered view.
type Page struct {
	Items      []core.Transaction `json:"items"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
	TotalItems int                `json:"totalItems"`
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.Page < p.TotalPages }

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.Page > 1 }

// Paginate returns the 1-based page of view. Pages outside
// [1, TotalPages] are rejected rather than clamped. An empty view has
// exactly one empty page.
func Paginate(view []core.Transaction, page, size int) (Page, error) {
	if size < 1 {
		size = DefaultPageSize
	}
	total := max(1, (len(view)+size-1)/size)
	if page < 1 || page > total {
		return Page{}, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, total)
	}
	start := (page - 1) * size
	end := min(start+size, len(view))
	return Page{
		Items:      view[start:end:end],
		Page:       page,
		PageSize:   size,
		TotalPages: total,
		TotalItems: len(view),
	}, nil
}

// Stats totals the filtered view, independent of paging.
func Stats(view []core.Transaction) ledger.Totals {
	return ledger.Sum(view)
}
