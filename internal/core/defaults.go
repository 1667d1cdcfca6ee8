package core

// DefaultSettings returns the settings used when none are persisted.
func DefaultSettings() Settings {
	return Settings{
		Currency:      "RWF",
		Theme:         ThemeLight,
		ItemsPerPage:  10,
		Notifications: true,
		Language:      "en",
		DateFormat:    "MM/DD/YYYY",
		AutoBackup:    false,
	}
}

// DefaultCategories returns a fresh copy of the built-in category registry.
func DefaultCategories() Categories {
	return Categories{
		Income: []Category{
			{ID: "salary", Name: "Salary", Icon: "💼", Color: "#10B981"},
			{ID: "freelance", Name: "Freelance", Icon: "💻", Color: "#059669"},
			{ID: "investment", Name: "Investment", Icon: "📈", Color: "#047857"},
			{ID: "gift", Name: "Gift", Icon: "🎁", Color: "#065F46"},
			{ID: "other-income", Name: "Other Income", Icon: "💰", Color: "#064E3B"},
		},
		Expense: []Category{
			{ID: "food", Name: "Food & Dining", Icon: "🍽️", Color: "#EF4444"},
			{ID: "transport", Name: "Transportation", Icon: "🚗", Color: "#DC2626"},
			{ID: "entertainment", Name: "Entertainment", Icon: "🎬", Color: "#B91C1C"},
			{ID: "shopping", Name: "Shopping", Icon: "🛍️", Color: "#991B1B"},
			{ID: "bills", Name: "Bills & Utilities", Icon: "💡", Color: "#7F1D1D"},
			{ID: "healthcare", Name: "Healthcare", Icon: "🏥", Color: "#F59E0B"},
			{ID: "education", Name: "Education", Icon: "📚", Color: "#D97706"},
			{ID: "other", Name: "Other", Icon: "📦", Color: "#92400E"},
		},
	}
}
