// Package sequence decides which ledger months may be viewed or created.
// Months form a contiguous run; the navigator only ever extends the run by one
// month at either end, and only within a window around the real-world month.
package sequence

import (
	"fmt"

	"github.com/ledgerd/ledgerd/internal/utils"
	"github.com/ledgerd/ledgerd/pkg/ledger"
	log "github.com/sirupsen/logrus"
)

// Reason explains why navigation to a month is allowed.
type Reason string

const (
	// ReasonExists means the month already has a document; nothing is created.
	ReasonExists Reason = "exists"
	// ReasonWalkForward means the month extends the sequence at the top
	// (or bootstraps an empty sequence).
	ReasonWalkForward Reason = "walkForward"
	// ReasonWalkBackward means the month extends the sequence at the bottom.
	ReasonWalkBackward Reason = "walkBackward"
)

// ViolationKind distinguishes the ways a month creation can be rejected.
type ViolationKind string

const (
	ViolationFutureBound  ViolationKind = "futureBound"
	ViolationPastBound    ViolationKind = "pastBound"
	ViolationSkipForward  ViolationKind = "skipForward"
	ViolationSkipBackward ViolationKind = "skipBackward"
	ViolationInsideGap    ViolationKind = "insideGap"
	ViolationInvalidMonth ViolationKind = "invalidMonth"
)

// Violation is the error returned when a month may not be created.
type Violation struct {
	Kind    ViolationKind
	Message string
}

func (v *Violation) Error() string {
	return v.Message
}

// Decision is the navigator's answer for an allowed month.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Navigator enforces the month creation rules against the budget's existing
// month keys and the real-world calendar date.
type Navigator struct {
	clock  utils.Clock
	window int
}

// NewNavigator returns a navigator that allows creating months up to window
// calendar months ahead of or behind today's month.
func NewNavigator(clock utils.Clock, window int) *Navigator {
	return &Navigator{clock: clock, window: window}
}

// CanCreateMonth decides whether the (year, month) ledger may be navigated to,
// given the set of months that already exist. The rules, in order:
//
//  1. An existing month is always viewable.
//  2. An empty sequence may be bootstrapped anywhere.
//  3. The month directly after the latest existing month may be created while
//     it is no more than the window ahead of today's month. Forward walks
//     never check past-ness.
//  4. The month directly before the earliest existing month may be created
//     while it is no more than the window behind today's month. Backward
//     walks never check future-ness.
//  5. Anything else is rejected: the caller must walk one month at a time.
func (n *Navigator) CanCreateMonth(year, month int, keys []ledger.MonthKey) (Decision, error) {
	if month < 1 || month > 12 {
		return Decision{}, &Violation{
			Kind:    ViolationInvalidMonth,
			Message: fmt.Sprintf("month %d is not a calendar month", month),
		}
	}

	requested := ledger.MonthKey{Year: year, Month: month}
	for _, k := range keys {
		if k == requested {
			return Decision{Allowed: true, Reason: ReasonExists}, nil
		}
	}

	if len(keys) == 0 {
		return Decision{Allowed: true, Reason: ReasonWalkForward}, nil
	}

	earliest, latest := keys[0], keys[0]
	for _, k := range keys[1:] {
		if k.Ordinal() < earliest.Ordinal() {
			earliest = k
		}
		if k.Ordinal() > latest.Ordinal() {
			latest = k
		}
	}

	now := n.clock.Now()
	today := ledger.MonthKey{Year: now.Year(), Month: int(now.Month())}

	// Both window bounds are inclusive: with a window of 3 and October as
	// today, January is the last month that may be created forward and July
	// the last backward.
	switch requested.Ordinal() {
	case latest.Ordinal() + 1:
		if requested.Ordinal() > today.Ordinal()+n.window {
			return Decision{}, &Violation{
				Kind: ViolationFutureBound,
				Message: fmt.Sprintf("%04d-%02d is more than %d months after the current month",
					year, month, n.window),
			}
		}
		return Decision{Allowed: true, Reason: ReasonWalkForward}, nil
	case earliest.Ordinal() - 1:
		if requested.Ordinal() < today.Ordinal()-n.window {
			return Decision{}, &Violation{
				Kind: ViolationPastBound,
				Message: fmt.Sprintf("%04d-%02d is more than %d months before the current month",
					year, month, n.window),
			}
		}
		return Decision{Allowed: true, Reason: ReasonWalkBackward}, nil
	}

	switch {
	case requested.Ordinal() > latest.Ordinal():
		return Decision{}, &Violation{
			Kind: ViolationSkipForward,
			Message: fmt.Sprintf("%04d-%02d would skip forward past %04d-%02d; months are created one at a time",
				year, month, latest.Year, latest.Month),
		}
	case requested.Ordinal() < earliest.Ordinal():
		return Decision{}, &Violation{
			Kind: ViolationSkipBackward,
			Message: fmt.Sprintf("%04d-%02d would skip backward past %04d-%02d; months are created one at a time",
				year, month, earliest.Year, earliest.Month),
		}
	default:
		// A hole between the earliest and latest months should not exist under
		// correct use; flag it loudly so the inconsistency is investigated.
		log.Warnf("month %04d-%02d falls inside a gap of an existing sequence", year, month)
		return Decision{}, &Violation{
			Kind: ViolationInsideGap,
			Message: fmt.Sprintf("%04d-%02d falls inside a gap of the existing month sequence; the ledger data is inconsistent",
				year, month),
		}
	}
}
