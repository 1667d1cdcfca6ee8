package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// CategoryShare is a CategoryAmount with its share of the type total.
type CategoryShare struct {
	CategoryAmount
	Percentage float64 `json:"percentage"`
}
