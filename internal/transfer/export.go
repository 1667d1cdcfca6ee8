// Package transfer reads and writes the tracker's file formats: the CSV
// transaction export, the full JSON backup and the JSON import files.
package transfer

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// Version is written into every JSON export.
const Version = "2.0"

// ErrNothingToExport is returned when there are no transactions to write.
var ErrNothingToExport = errors.New("no transactions to export")

var csvHeader = []string{"Date", "Description", "Category", "Type", "Amount", "Notes"}

// WriteCSV writes the transaction log in insertion order. Description and
// notes are wrapped in double quotes; embedded quotes are written as is.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	if len(txs) == 0 {
		return ErrNothingToExport
	}
	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(csvHeader, ","))
	for _, tx := range txs {
		fmt.Fprintf(bw, "\n%s,\"%s\",%s,%s,%s,\"%s\"",
			tx.Date, tx.Description, tx.Category, tx.Type, tx.Amount, tx.Notes)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Summary carries the headline figures stored alongside an export.
type Summary struct {
	TotalTransactions int        `json:"totalTransactions"`
	TotalBudgets      int        `json:"totalBudgets"`
	TotalGoals        int        `json:"totalGoals"`
	Income            core.Money `json:"income"`
	Expenses          core.Money `json:"expenses"`
	Balance           core.Money `json:"balance"`
}

func summarize(ds core.Dataset) Summary {
	totals := ledger.Sum(ds.Transactions)
	return Summary{
		TotalTransactions: len(ds.Transactions),
		TotalBudgets:      len(ds.Budgets),
		TotalGoals:        len(ds.Goals),
		Income:            totals.Income,
		Expenses:          totals.Expenses,
		Balance:           totals.Balance,
	}
}

// Backup is the complete export: every collection under a data envelope.
type Backup struct {
	Version    string       `json:"version"`
	ExportDate time.Time    `json:"exportDate"`
	Data       core.Dataset `json:"data"`
	Summary    Summary      `json:"summary"`
}

func NewBackup(ds core.Dataset, now time.Time) Backup {
	ds.Transactions = nonNil(ds.Transactions)
	ds.Budgets = nonNil(ds.Budgets)
	ds.Goals = nonNil(ds.Goals)
	return Backup{
		Version:    Version,
		ExportDate: now.UTC(),
		Data:       ds,
		Summary:    summarize(ds),
	}
}

// TransactionExport is the flat transaction-centred export. It has no
// data envelope and omits the category registry.
type TransactionExport struct {
	ExportDate   time.Time          `json:"exportDate"`
	Version      string             `json:"version"`
	Transactions []core.Transaction `json:"transactions"`
	Budgets      []core.Budget      `json:"budgets"`
	Goals        []core.Goal        `json:"goals"`
	Settings     core.Settings      `json:"settings"`
	Summary      Summary            `json:"summary"`
}

func NewTransactionExport(ds core.Dataset, now time.Time) (TransactionExport, error) {
	if len(ds.Transactions) == 0 {
		return TransactionExport{}, ErrNothingToExport
	}
	return TransactionExport{
		ExportDate:   now.UTC(),
		Version:      Version,
		Transactions: ds.Transactions,
		Budgets:      nonNil(ds.Budgets),
		Goals:        nonNil(ds.Goals),
		Settings:     ds.Settings,
		Summary:      summarize(ds),
	}, nil
}

// WriteJSON writes v indented by two spaces.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// CSVFilename, TransactionsFilename and BackupFilename name the download
// after the export day.
func CSVFilename(now time.Time) string {
	return "finance-tracker-" + now.UTC().Format(core.DateLayout) + ".csv"
}

func TransactionsFilename(now time.Time) string {
	return "finance-tracker-" + now.UTC().Format(core.DateLayout) + ".json"
}

func BackupFilename(now time.Time) string {
	return "finance-tracker-complete-" + now.UTC().Format(core.DateLayout) + ".json"
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
