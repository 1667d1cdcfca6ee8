// Package query implements the transaction list view: free-text search,
// type/category/period predicates, stable ordering and pagination.
package query

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"fintrack/internal/core"
)

const (
	All = "all"

	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"

	SortDateDesc   = "date-desc"
	SortDateAsc    = "date-asc"
	SortAmountDesc = "amount-desc"
	SortAmountAsc  = "amount-asc"
	SortCategory   = "category"
)

// DefaultPageSize is used when settings carry no positive page size.
const DefaultPageSize = 10

var (
	ErrPageOutOfRange = errors.New("page out of range")
	ErrInvalidParams  = errors.New("invalid query parameters")
)

// Params selects and orders a view over the transaction log. Empty fields
// behave like "all" and the default sort.
type Params struct {
	Search   string `json:"search"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Period   string `json:"period"`
	Sort     string `json:"sort"`
}

// Validate rejects unknown enum values.
func (p Params) Validate() error {
	switch p.Type {
	case "", All, string(core.Income), string(core.Expense):
	default:
		return fmt.Errorf("%w: type %q", ErrInvalidParams, p.Type)
	}
	if _, ok := periodDays[p.Period]; !ok && p.Period != "" && p.Period != All {
		return fmt.Errorf("%w: period %q", ErrInvalidParams, p.Period)
	}
	if _, ok := sorters[p.Sort]; !ok && p.Sort != "" {
		return fmt.Errorf("%w: sort %q", ErrInvalidParams, p.Sort)
	}
	return nil
}

var periodDays = map[string]int{
	PeriodToday: 0,
	PeriodWeek:  7,
	PeriodMonth: 30,
	PeriodYear:  365,
}

var sorters = map[string]func(a, b core.Transaction) int{
	SortDateDesc:   func(a, b core.Transaction) int { return b.Date.Compare(a.Date.Time) },
	SortDateAsc:    func(a, b core.Transaction) int { return a.Date.Compare(b.Date.Time) },
	SortAmountDesc: func(a, b core.Transaction) int { return b.Amount.Cmp(a.Amount) },
	SortAmountAsc:  func(a, b core.Transaction) int { return a.Amount.Cmp(b.Amount) },
	SortCategory:   func(a, b core.Transaction) int { return cmp.Compare(a.Category, b.Category) },
}

// Apply filters txs by p and returns a newly allocated, stably sorted
// slice. The input is never reordered.
func Apply(txs []core.Transaction, p Params, today core.Date) []core.Transaction {
	match := p.matcher(today)
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if match(tx) {
			out = append(out, tx)
		}
	}
	sorter, ok := sorters[p.Sort]
	if !ok {
		sorter = sorters[SortDateDesc]
	}
	slices.SortStableFunc(out, sorter)
	return out
}

func (p Params) matcher(today core.Date) func(core.Transaction) bool {
	needle := strings.ToLower(strings.TrimSpace(p.Search))
	typ := p.Type
	category := p.Category
	bound, hasBound := PeriodStart(p.Period, today)

	return func(tx core.Transaction) bool {
		if needle != "" &&
			!strings.Contains(strings.ToLower(tx.Description), needle) &&
			!strings.Contains(strings.ToLower(tx.Category), needle) &&
			!strings.Contains(strings.ToLower(tx.Notes), needle) {
			return false
		}
		if typ != "" && typ != All && string(tx.Type) != typ {
			return false
		}
		if category != "" && category != All && tx.Category != category {
			return false
		}
		if hasBound && tx.Date.Before(bound.Time) {
			return false
		}
		return true
	}
}

// PeriodStart returns the inclusive lower date bound of a period filter.
// The second result is false for "all" and unknown periods.
func PeriodStart(period string, today core.Date) (core.Date, bool) {
	days, ok := periodDays[period]
	if !ok {
		return core.Date{}, false
	}
	return today.AddDays(-days), true
}

// Categories lists the distinct category names present in the log, sorted.
func Categories(txs []core.Transaction) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tx := range txs {
		if _, ok := seen[tx.Category]; ok {
			continue
		}
		seen[tx.Category] = struct{}{}
		out = append(out, tx.Category)
	}
	slices.Sort(out)
	return out
}
