// Package ledger holds the financial record repository.
//
// The repository knows about transactions, budgets and recurring
// obligations; the access core underneath does not. Every method is one
// read or write block submitted through the access facade, so concurrent
// callers never race on the store.
package ledger

import "time"

// Record kinds in the store.
const (
	KindTransaction = "transaction"
	KindBudget      = "budget"
	KindRecurring   = "recurring"
)

// Transaction is a single posted amount. Amounts are in minor units
// (cents); negative amounts are outflows.
type Transaction struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Payee    string    `json:"payee"`
	Amount   int64     `json:"amount"`
	Category string    `json:"category,omitempty"`
	Memo     string    `json:"memo,omitempty"`
}

// Budget is a spending limit for one category and period.
type Budget struct {
	Category string `json:"category"`
	Limit    int64  `json:"limit"`
	Period   string `json:"period"`
}

// Recurring is an obligation that repeats on a fixed interval.
type Recurring struct {
	ID       string    `json:"id"`
	Payee    string    `json:"payee"`
	Amount   int64     `json:"amount"`
	Interval string    `json:"interval"`
	NextDue  time.Time `json:"next_due"`
	Category string    `json:"category,omitempty"`
}
