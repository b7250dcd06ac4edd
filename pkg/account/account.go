package account

import "time"

// Account is a money container within a budget (checking, savings, cash).
// Ledger entries reference accounts by id; balances are derived per month.
type Account struct {
	ID        string
	BudgetID  string
	Name      string
	CreatedAt time.Time
}
