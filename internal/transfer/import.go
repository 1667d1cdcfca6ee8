package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/PaesslerAG/jsonpath"

	"fintrack/internal/core"
)

// ErrImportFormat is returned for files that are not JSON or contain
// nothing importable.
var ErrImportFormat = errors.New("invalid import file")

// Format identifies which import layout a file used.
type Format string

const (
	// FormatArray is a bare array of transactions.
	FormatArray Format = "array"
	// FormatTransactions is an object with a transactions list and
	// optional budgets, goals and settings.
	FormatTransactions Format = "transactions"
	// FormatBackup is a full export with a data envelope.
	FormatBackup Format = "backup"
)

// requiredFields must all be present and truthy for a transaction record
// to be imported.
var requiredFields = []string{"id", "amount", "description", "category", "type", "date"}

// Parse reads an import file and returns its valid content. Transaction
// records missing a required field are dropped and counted; budgets and
// goals that fail validation are dropped silently. Collections absent
// from the file stay nil in the result.
func Parse(r io.Reader) (core.ImportSet, Format, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return core.ImportSet{}, "", fmt.Errorf("read import: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return core.ImportSet{}, "", fmt.Errorf("%w: %v", ErrImportFormat, err)
	}

	switch v := doc.(type) {
	case []any:
		set, err := parseTransactions(v)
		return set, FormatArray, err
	case map[string]any:
		if data, ok := lookup(v, "$.data"); ok {
			set, err := parseBackup(data)
			return set, FormatBackup, err
		}
		if _, ok := lookup(v, "$.transactions"); ok {
			set, err := parseFlat(v)
			return set, FormatTransactions, err
		}
	}
	return core.ImportSet{}, "", fmt.Errorf("%w: expected a transaction list or an export file", ErrImportFormat)
}

func parseTransactions(records []any) (core.ImportSet, error) {
	txs, dropped := validTransactions(records)
	if len(txs) == 0 {
		return core.ImportSet{}, fmt.Errorf("%w: no valid transactions found", ErrImportFormat)
	}
	return core.ImportSet{Transactions: txs, Dropped: dropped}, nil
}

func parseFlat(doc map[string]any) (core.ImportSet, error) {
	records, _ := lookupList(doc, "$.transactions")
	set, err := parseTransactions(records)
	if err != nil {
		return core.ImportSet{}, err
	}
	if list, ok := lookupList(doc, "$.budgets"); ok {
		set.Budgets = validBudgets(list)
	}
	if list, ok := lookupList(doc, "$.goals"); ok {
		set.Goals = validGoals(list)
	}
	if s, ok := lookup(doc, "$.settings"); ok {
		patch, err := decodeSettings(s)
		if err != nil {
			return core.ImportSet{}, err
		}
		set.Settings = patch
	}
	return set, nil
}

// parseBackup reads a full export. Every collection takes part in the
// import; a missing one counts as empty.
func parseBackup(data any) (core.ImportSet, error) {
	if _, ok := data.(map[string]any); !ok {
		return core.ImportSet{}, fmt.Errorf("%w: data must be an object", ErrImportFormat)
	}
	records, _ := lookupList(data, "$.transactions")
	txs, dropped := validTransactions(records)
	budgets, _ := lookupList(data, "$.budgets")
	goals, _ := lookupList(data, "$.goals")

	set := core.ImportSet{
		Transactions: nonNil(txs),
		Budgets:      nonNil(validBudgets(budgets)),
		Goals:        nonNil(validGoals(goals)),
		Dropped:      dropped,
	}
	if s, ok := lookup(data, "$.settings"); ok {
		patch, err := decodeSettings(s)
		if err != nil {
			return core.ImportSet{}, err
		}
		set.Settings = patch
	}
	if c, ok := lookup(data, "$.categories"); ok && c != nil {
		var cats core.Categories
		if err := remarshal(c, &cats); err != nil {
			return core.ImportSet{}, fmt.Errorf("%w: categories: %v", ErrImportFormat, err)
		}
		set.Categories = &cats
	}
	if len(records) > 0 && len(txs) == 0 {
		return core.ImportSet{}, fmt.Errorf("%w: no valid transactions found", ErrImportFormat)
	}
	return set, nil
}

func validTransactions(records []any) ([]core.Transaction, int) {
	var out []core.Transaction
	dropped := 0
	for _, rec := range records {
		obj, ok := rec.(map[string]any)
		if !ok || !hasRequired(obj) {
			dropped++
			continue
		}
		var tx core.Transaction
		if err := remarshal(obj, &tx); err != nil || tx.ID == 0 || tx.Validate() != nil {
			dropped++
			continue
		}
		out = append(out, tx)
	}
	return out, dropped
}

func validBudgets(records []any) []core.Budget {
	var out []core.Budget
	for _, rec := range records {
		var b core.Budget
		if err := remarshal(rec, &b); err != nil || b.ID == 0 {
			continue
		}
		b = b.WithDefaults()
		if b.Validate() != nil {
			continue
		}
		out = append(out, b)
	}
	return out
}

func validGoals(records []any) []core.Goal {
	var out []core.Goal
	for _, rec := range records {
		var g core.Goal
		if err := remarshal(rec, &g); err != nil || g.ID == 0 {
			continue
		}
		g = g.WithDefaults()
		if g.Validate() != nil {
			continue
		}
		out = append(out, g)
	}
	return out
}

func decodeSettings(v any) (*core.SettingsPatch, error) {
	if v == nil {
		return nil, nil
	}
	var patch core.SettingsPatch
	if err := remarshal(v, &patch); err != nil {
		return nil, fmt.Errorf("%w: settings: %v", ErrImportFormat, err)
	}
	return &patch, nil
}

// hasRequired reports whether every required field is present and
// truthy: not null, false, zero or the empty string.
func hasRequired(obj map[string]any) bool {
	for _, f := range requiredFields {
		if !truthy(obj[f]) {
			return false
		}
	}
	return true
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	default:
		return true
	}
}

// lookup resolves a JSONPath against a decoded document. Missing keys
// are reported as not found.
func lookup(doc any, path string) (any, bool) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, false
	}
	return v, true
}

func lookupList(doc any, path string) ([]any, bool) {
	v, ok := lookup(doc, path)
	if !ok {
		return nil, false
	}
	list, ok := v.([]any)
	return list, ok
}

func remarshal(v any, out any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
