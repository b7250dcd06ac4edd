package category

import "time"

// Category is a spending envelope within a budget. Transactions may also be
// left uncategorized; that bucket exists implicitly and has no Category row.
type Category struct {
	ID        string
	BudgetID  string
	Name      string
	CreatedAt time.Time
}
