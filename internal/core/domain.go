package core

import (
	"strings"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

const (
	Weekly  BudgetPeriod = "weekly"
	Monthly BudgetPeriod = "monthly"
	Yearly  BudgetPeriod = "yearly"
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultAlertThreshold is applied to budgets created without a threshold.
const DefaultAlertThreshold = 80

type (
	TxType       string
	BudgetPeriod string
	Priority     string
	Theme        string

	// Transaction is a single dated income or expense entry. It is never
	// partially mutated: edits replace the whole record by ID.
	Transaction struct {
		ID          int64     `json:"id"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Type        TxType    `json:"type"`
		Category    string    `json:"category"`
		Date        Date      `json:"date"`
		Notes       string    `json:"notes"`
		Timestamp   time.Time `json:"timestamp"`
	}

	// Budget caps spending for one category over an explicit date range.
	// Period is advisory and never used to derive the range.
	Budget struct {
		ID             int64        `json:"id"`
		Name           string       `json:"name"`
		Category       string       `json:"category"`
		Amount         Money        `json:"amount"`
		Period         BudgetPeriod `json:"period"`
		StartDate      Date         `json:"startDate"`
		EndDate        Date         `json:"endDate"`
		AlertThreshold float64      `json:"alertThreshold"`
		IsActive       bool         `json:"isActive"`
		CreatedAt      time.Time    `json:"createdAt"`
	}

	// Goal is a savings target with a deadline and a running contribution total.
	Goal struct {
		ID            int64      `json:"id"`
		Name          string     `json:"name"`
		Description   string     `json:"description"`
		TargetAmount  Money      `json:"targetAmount"`
		CurrentAmount Money      `json:"currentAmount"`
		TargetDate    Date       `json:"targetDate"`
		Category      string     `json:"category"`
		Priority      Priority   `json:"priority"`
		IsActive      bool       `json:"isActive"`
		CreatedAt     time.Time  `json:"createdAt"`
		IsCompleted   bool       `json:"isCompleted"`
		CompletedAt   *time.Time `json:"completedAt,omitempty"`
	}

	Settings struct {
		Currency      string `json:"currency"`
		Theme         Theme  `json:"theme"`
		ItemsPerPage  int    `json:"itemsPerPage"`
		Notifications bool   `json:"notifications"`
		Language      string `json:"language"`
		DateFormat    string `json:"dateFormat"`
		AutoBackup    bool   `json:"autoBackup"`
	}

	// SettingsPatch holds the fields of a partial settings update; nil
	// fields are left untouched.
	SettingsPatch struct {
		Currency      *string `json:"currency,omitempty"`
		Theme         *Theme  `json:"theme,omitempty"`
		ItemsPerPage  *int    `json:"itemsPerPage,omitempty"`
		Notifications *bool   `json:"notifications,omitempty"`
		Language      *string `json:"language,omitempty"`
		DateFormat    *string `json:"dateFormat,omitempty"`
		AutoBackup    *bool   `json:"autoBackup,omitempty"`
	}

	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
	}

	// Categories is the registry offered to the presentation layer.
	// Transactions reference categories by free text, not by ID.
	Categories struct {
		Income  []Category `json:"income"`
		Expense []Category `json:"expense"`
	}
)

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

func (p BudgetPeriod) Valid() bool {
	switch p {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// IsIncome reports whether the transaction adds to the balance.
func (t Transaction) IsIncome() bool { return t.Type == Income }

// IsExpense reports whether the transaction subtracts from the balance.
func (t Transaction) IsExpense() bool { return t.Type == Expense }

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return invalid("description", ErrEmptyDescription)
	}
	if !t.Amount.IsPositive() {
		return invalid("amount", ErrInvalidAmount)
	}
	if t.Type == "" {
		return invalid("type", ErrMissingType)
	}
	if !t.Type.Valid() {
		return invalid("type", ErrInvalidType)
	}
	if strings.TrimSpace(t.Category) == "" {
		return invalid("category", ErrEmptyCategory)
	}
	if t.Date.IsZero() {
		return invalid("date", ErrMissingDate)
	}
	return nil
}

// WithDefaults fills the optional budget fields the way creation does.
func (b Budget) WithDefaults() Budget {
	if b.Period == "" {
		b.Period = Monthly
	}
	if b.AlertThreshold == 0 {
		b.AlertThreshold = DefaultAlertThreshold
	}
	return b
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if strings.TrimSpace(b.Category) == "" {
		return invalid("category", ErrEmptyCategory)
	}
	if !b.Amount.IsPositive() {
		return invalid("amount", ErrInvalidAmount)
	}
	if b.StartDate.IsZero() {
		return invalid("startDate", ErrMissingDate)
	}
	if b.EndDate.IsZero() {
		return invalid("endDate", ErrMissingDate)
	}
	if !b.EndDate.After(b.StartDate.Time) {
		return invalid("endDate", ErrInvalidRange)
	}
	if b.AlertThreshold < 0 || b.AlertThreshold > 100 {
		return invalid("alertThreshold", ErrInvalidThreshold)
	}
	if b.Period != "" && !b.Period.Valid() {
		return invalid("period", ErrInvalidPeriod)
	}
	return nil
}

// WithDefaults fills the optional goal fields the way creation does.
func (g Goal) WithDefaults() Goal {
	if g.Priority == "" {
		g.Priority = PriorityMedium
	}
	return g
}

// Validate checks the structural goal invariants. The future target date
// rule applies to creation only, see ValidateNew.
func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if !g.TargetAmount.IsPositive() {
		return invalid("targetAmount", ErrInvalidAmount)
	}
	if g.CurrentAmount.IsNegative() {
		return invalid("currentAmount", ErrNegativeAmount)
	}
	if g.TargetDate.IsZero() {
		return invalid("targetDate", ErrMissingDate)
	}
	if g.Priority != "" && !g.Priority.Valid() {
		return invalid("priority", ErrInvalidPriority)
	}
	return nil
}

// ValidateNew validates a goal about to be created on the given day.
func (g Goal) ValidateNew(today Date) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if !g.TargetDate.After(today.Time) {
		return invalid("targetDate", ErrTargetDateInPast)
	}
	return nil
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.Currency) == "" {
		return invalid("currency", ErrEmptyCurrency)
	}
	if !s.Theme.Valid() {
		return invalid("theme", ErrInvalidTheme)
	}
	if s.ItemsPerPage < 1 {
		return invalid("itemsPerPage", ErrInvalidPageSize)
	}
	return nil
}

// Apply returns a copy of s with the patch fields overlaid.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.ItemsPerPage != nil {
		s.ItemsPerPage = *p.ItemsPerPage
	}
	if p.Notifications != nil {
		s.Notifications = *p.Notifications
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.DateFormat != nil {
		s.DateFormat = *p.DateFormat
	}
	if p.AutoBackup != nil {
		s.AutoBackup = *p.AutoBackup
	}
	return s
}

// Names returns the category names of the given type in registry order.
func (c Categories) Names(t TxType) []string {
	list := c.Expense
	if t == Income {
		list = c.Income
	}
	names := make([]string, 0, len(list))
	for _, cat := range list {
		names = append(names, cat.Name)
	}
	return names
}
