package event_bus

const (
	// MonthRecalculated is published after a month (and any cascaded
	// successors) had its derived balances rewritten.
	MonthRecalculated EventType = "ledger.month.recalculated"
	// AllocationsFinalized is published when a month's allocations are applied
	// to its end balances.
	AllocationsFinalized EventType = "allocation.finalized"
	// AllocationsCleared is published when a month's allocations are removed
	// and the finalized state is reverted.
	AllocationsCleared EventType = "allocation.cleared"
)

type MonthRecalculatedEvent struct {
	BudgetID string
	Year     int
	Month    int
	// CascadedMonths is how many later months were rewritten because their
	// start balances changed.
	CascadedMonths int
}

type AllocationsFinalizedEvent struct {
	BudgetID   string
	Year       int
	Month      int
	Categories int
}

type AllocationsClearedEvent struct {
	BudgetID string
	Year     int
	Month    int
}
