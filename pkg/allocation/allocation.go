package allocation

import (
	"errors"

	"github.com/ledgerd/ledgerd/pkg/ledger"
)

var ErrInvalidTransition = errors.New("invalid allocation state transition")

// Status is the persisted allocation lifecycle state of a month. Draft
// allocations are planning values only and never reach end balances;
// finalized allocations are applied. Editing a finalized month is done by
// finalizing again with new values; the finalized flag never reverts except
// through DeleteAll, and a cancelled edit is simply a fresh read of the
// persisted month.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusFinalized Status = "finalized"
)

// StatusOf derives the lifecycle state from the month document.
func StatusOf(m ledger.MonthlyLedger) Status {
	if m.AllocationsFinalized {
		return StatusFinalized
	}
	return StatusDraft
}

// CanSaveDraft reports whether draft values may still be written.
func (s Status) CanSaveDraft() bool {
	return s == StatusDraft
}

// CanFinalize reports whether the month may be finalized. Finalizing is legal
// from both states: from Draft it applies the allocations for the first time,
// from Finalized it is the re-finalize step of an edit.
func (s Status) CanFinalize() bool {
	return true
}

// CanDeleteAll reports whether the all-allocations-clear operation applies.
func (s Status) CanDeleteAll() bool {
	return s == StatusFinalized
}
