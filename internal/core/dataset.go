package core

// Dataset is the complete application state.
type Dataset struct {
	Transactions []Transaction `json:"transactions"`
	Budgets      []Budget      `json:"budgets"`
	Goals        []Goal        `json:"goals"`
	Settings     Settings      `json:"settings"`
	Categories   Categories    `json:"categories"`
}

// ImportSet is the validated content of an import file. A nil collection
// was absent from the file and is left untouched; a non-nil one, even
// empty, takes part in the import.
type ImportSet struct {
	Transactions []Transaction
	Budgets      []Budget
	Goals        []Goal
	Settings     *SettingsPatch
	Categories   *Categories
	// Dropped counts transaction records rejected for missing fields.
	Dropped int
}

// Overlay replaces the category lists present in patch.
func (c Categories) Overlay(patch *Categories) Categories {
	if patch == nil {
		return c
	}
	if patch.Income != nil {
		c.Income = patch.Income
	}
	if patch.Expense != nil {
		c.Expense = patch.Expense
	}
	return c
}
