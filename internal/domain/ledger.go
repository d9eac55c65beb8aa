// Package domain holds the core entities and error types of the finance agent.
package domain

import "time"

// Expense is a single spend record in the ledger.
// Records are owned by the ledger store; callers always receive copies.
type Expense struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Amount float64   `json:"amount"`
	Date   time.Time `json:"date"`
}

// Income is an earning record. Append-only: there are no update or
// delete operations for income.
type Income struct {
	Name   string    `json:"name"`
	Amount float64   `json:"amount"`
	Date   time.Time `json:"date"`
}
