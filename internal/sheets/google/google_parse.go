package google

import (
	"fmt"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// Column layout of the mirrored sheet.
var header = []string{"ID", "Date", "Description", "Category", "Type", "Amount", "Notes"}

const lastColumn = "G"

// encodeRows converts txs into a values matrix led by the header row.
func encodeRows(txs []core.Transaction) [][]any {
	rows := make([][]any, 0, len(txs)+1)
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	rows = append(rows, head)
	for _, tx := range txs {
		rows = append(rows, []any{
			strconv.FormatInt(tx.ID, 10),
			tx.Date.String(),
			tx.Description,
			tx.Category,
			string(tx.Type),
			tx.Amount.Float64(),
			tx.Notes,
		})
	}
	return rows
}

// parseRows converts a values matrix (as returned by the Sheets API) back
// into transactions. The first row must be the header; columns are located
// by name so reordering them in the sheet is harmless.
func parseRows(values [][]any) ([]core.Transaction, int, error) {
	if len(values) == 0 {
		return nil, 0, nil
	}
	headers := toStrings(values[0])
	cols := make(map[string]int, len(header))
	var missing []string
	for _, h := range header {
		idx := indexOf(headers, h)
		if idx == -1 && h != "Notes" {
			missing = append(missing, h)
		}
		cols[h] = idx
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("unexpected transactions header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	var (
		out     []core.Transaction
		skipped int
	)
	for _, raw := range values[1:] {
		row := toStrings(raw)
		if strings.Join(row, "") == "" {
			continue
		}
		tx, ok := parseRow(row, cols)
		if !ok {
			skipped++
			continue
		}
		out = append(out, tx)
	}
	return out, skipped, nil
}

func parseRow(row []string, cols map[string]int) (core.Transaction, bool) {
	id, err := strconv.ParseInt(safeGet(row, cols["ID"]), 10, 64)
	if err != nil || id == 0 {
		return core.Transaction{}, false
	}
	date, err := core.ParseDate(safeGet(row, cols["Date"]))
	if err != nil {
		return core.Transaction{}, false
	}
	amount, err := core.ParseMoney(safeGet(row, cols["Amount"]))
	if err != nil {
		return core.Transaction{}, false
	}
	tx := core.Transaction{
		ID:          id,
		Date:        date,
		Description: safeGet(row, cols["Description"]),
		Category:    safeGet(row, cols["Category"]),
		Type:        core.TxType(strings.ToLower(safeGet(row, cols["Type"]))),
		Amount:      amount,
		Notes:       safeGet(row, cols["Notes"]),
	}
	if tx.Validate() != nil {
		return core.Transaction{}, false
	}
	return tx, true
}

// toStrings renders cells as text. Numbers keep every digit so that
// millisecond IDs survive the float64 round trip.
func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
