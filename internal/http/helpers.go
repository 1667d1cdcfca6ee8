package http

import (
	"strings"

	"fintrack/internal/core"
)

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// transactionRequest is the body of create and update calls. ID and
// timestamp are assigned by the store.
type transactionRequest struct {
	Description string      `json:"description"`
	Amount      core.Money  `json:"amount"`
	Type        core.TxType `json:"type"`
	Category    string      `json:"category"`
	Date        core.Date   `json:"date"`
	Notes       string      `json:"notes"`
}

func (req transactionRequest) transaction() core.Transaction {
	return core.Transaction{
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount,
		Type:        core.TxType(strings.ToLower(strings.TrimSpace(string(req.Type)))),
		Category:    sanitizeInput(req.Category),
		Date:        req.Date,
		Notes:       sanitizeInput(req.Notes),
	}
}

func sanitizeBudget(b core.Budget) core.Budget {
	b.Name = sanitizeInput(b.Name)
	b.Category = sanitizeInput(b.Category)
	return b
}

func sanitizeGoal(g core.Goal) core.Goal {
	g.Name = sanitizeInput(g.Name)
	g.Description = sanitizeInput(g.Description)
	g.Category = sanitizeInput(g.Category)
	return g
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

type contributionRequest struct {
	Amount core.Money `json:"amount"`
}
