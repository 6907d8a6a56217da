package core

import "time"

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
}

// MonthOverview is a compact income/expense summary for a year+month.
type MonthOverview struct {
	Year       int              `json:"year"`
	Month      time.Month       `json:"month"`
	Income     Money            `json:"income"`
	Expense    Money            `json:"expense"`
	Net        Money            `json:"net"`
	ByCategory []CategoryAmount `json:"byCategory"`
}
