// Package cascade propagates a month's recomputed end balances into the start
// balances of the months after it. The walk itself is a pure function over
// month snapshots; the Orchestrator is the thin shell that reads and writes
// the document store around it.
package cascade

import (
	"github.com/ledgerd/ledgerd/pkg/ledger"
	"github.com/ledgerd/ledgerd/pkg/money"
)

// Plan retotals the first month and walks forward through the given ordered,
// consecutive snapshots: each month's end balances are copied into the next
// month's start balances, and that month is retotaled in turn. The walk stops
// as soon as a month's start balances already match the previous month's new
// end balances, so an unaffected tail is never touched.
//
// The returned slice contains only the months that must be rewritten (always
// at least the first, which the caller asked to recompute). Input snapshots
// are not mutated. Cascades never walk backward.
func Plan(months []ledger.MonthlyLedger) []ledger.MonthlyLedger {
	if len(months) == 0 {
		return nil
	}

	changed := make([]ledger.MonthlyLedger, 0, len(months))
	current := ledger.Retotal(months[0])
	changed = append(changed, current)

	for _, next := range months[1:] {
		if !seedsOutdated(current, next) {
			break
		}
		current = ledger.Retotal(SeedFrom(next, current))
		changed = append(changed, current)
	}
	return changed
}

// seedsOutdated reports whether next's start balances disagree with prev's end
// balances for any account or category. Balances absent on one side count as
// zero on that side.
func seedsOutdated(prev, next ledger.MonthlyLedger) bool {
	prevAccountEnd := map[string]float64{}
	for _, b := range prev.AccountBalances {
		prevAccountEnd[b.AccountID] = b.EndBalance
	}
	seenAccounts := map[string]bool{}
	for _, b := range next.AccountBalances {
		seenAccounts[b.AccountID] = true
		if money.Round2(b.StartBalance) != money.Round2(prevAccountEnd[b.AccountID]) {
			return true
		}
	}
	for accountID, end := range prevAccountEnd {
		if !seenAccounts[accountID] && money.Round2(end) != 0 {
			return true
		}
	}

	prevCategoryEnd := map[ledger.CategoryRef]float64{}
	for _, b := range prev.CategoryBalances {
		prevCategoryEnd[b.Category.Normalize()] = b.EndBalance
	}
	seenCategories := map[ledger.CategoryRef]bool{}
	for _, b := range next.CategoryBalances {
		ref := b.Category.Normalize()
		seenCategories[ref] = true
		if money.Round2(b.StartBalance) != money.Round2(prevCategoryEnd[ref]) {
			return true
		}
	}
	for ref, end := range prevCategoryEnd {
		if !seenCategories[ref] && money.Round2(end) != 0 {
			return true
		}
	}

	return false
}

// SeedFrom overwrites next's start balances with prev's end balances,
// synthesizing balance entries for accounts and categories that exist in prev
// but not yet in next. Allocated values and entry lists are untouched; the
// caller retotals afterwards.
func SeedFrom(next, prev ledger.MonthlyLedger) ledger.MonthlyLedger {
	out := next.Clone()

	prevAccountEnd := map[string]float64{}
	for _, b := range prev.AccountBalances {
		prevAccountEnd[b.AccountID] = b.EndBalance
	}
	seenAccounts := map[string]bool{}
	for i, b := range out.AccountBalances {
		seenAccounts[b.AccountID] = true
		out.AccountBalances[i].StartBalance = money.Round2(prevAccountEnd[b.AccountID])
	}
	for _, b := range prev.AccountBalances {
		if !seenAccounts[b.AccountID] {
			out.AccountBalances = append(out.AccountBalances, ledger.AccountBalance{
				AccountID:    b.AccountID,
				StartBalance: money.Round2(b.EndBalance),
			})
		}
	}

	prevCategoryEnd := map[ledger.CategoryRef]float64{}
	for _, b := range prev.CategoryBalances {
		prevCategoryEnd[b.Category.Normalize()] = b.EndBalance
	}
	seenCategories := map[ledger.CategoryRef]bool{}
	for i, b := range out.CategoryBalances {
		ref := b.Category.Normalize()
		seenCategories[ref] = true
		out.CategoryBalances[i].StartBalance = money.Round2(prevCategoryEnd[ref])
	}
	for _, b := range prev.CategoryBalances {
		ref := b.Category.Normalize()
		if !seenCategories[ref] {
			out.CategoryBalances = append(out.CategoryBalances, ledger.CategoryBalance{
				Category:     ref,
				StartBalance: money.Round2(b.EndBalance),
			})
		}
	}

	return out
}
