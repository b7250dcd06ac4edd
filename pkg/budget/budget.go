package budget

import "time"

// Budget is the top-level container: every account, category and ledger month
// belongs to exactly one budget.
type Budget struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
