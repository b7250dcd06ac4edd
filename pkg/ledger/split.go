package ledger

import (
	"sort"

	"github.com/ledgerd/ledgerd/pkg/money"
)

// ClearedBalance is the bank-reconciliation view of one account: the balance
// counting only reconciled activity next to the balance counting everything.
type ClearedBalance struct {
	AccountID string
	Cleared   float64
	Uncleared float64
}

// SplitCleared derives the cleared/uncleared balance pair for every account in
// the month. Both sides are seeded from the account's start balance. Income
// has no cleared concept and always counts on both sides; expenses, transfers
// and adjustments count on the cleared side only when flagged cleared. The
// ledger itself is not modified.
func SplitCleared(m MonthlyLedger) []ClearedBalance {
	type split struct {
		cleared   []float64
		uncleared []float64
	}
	splits := map[string]*split{}
	get := func(accountID string) *split {
		s, ok := splits[accountID]
		if !ok {
			s = &split{}
			splits[accountID] = s
		}
		return s
	}
	add := func(accountID string, amount float64, cleared bool) {
		s := get(accountID)
		s.uncleared = append(s.uncleared, amount)
		if cleared {
			s.cleared = append(s.cleared, amount)
		}
	}

	for _, e := range m.Income {
		add(e.AccountID, e.Amount, true)
	}
	for _, e := range m.Expenses {
		add(e.AccountID, e.Amount, e.Cleared)
	}
	for _, e := range m.Transfers {
		add(e.FromAccountID, -e.Amount, e.Cleared)
		add(e.ToAccountID, e.Amount, e.Cleared)
	}
	for _, e := range m.Adjustments {
		add(e.AccountID, e.Amount, e.Cleared)
	}

	seen := map[string]bool{}
	accountIDs := make([]string, 0, len(splits)+len(m.AccountBalances))
	for _, b := range m.AccountBalances {
		if !seen[b.AccountID] {
			seen[b.AccountID] = true
			accountIDs = append(accountIDs, b.AccountID)
		}
	}
	for accountID := range splits {
		if !seen[accountID] {
			seen[accountID] = true
			accountIDs = append(accountIDs, accountID)
		}
	}
	sort.Strings(accountIDs)

	out := make([]ClearedBalance, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		start := 0.0
		if existing, ok := m.AccountBalanceFor(accountID); ok {
			start = money.Round2(existing.StartBalance)
		}

		var clearedSum, unclearedSum float64
		if s, ok := splits[accountID]; ok {
			clearedSum = money.Sum(s.cleared...)
			unclearedSum = money.Sum(s.uncleared...)
		}

		// Each side is rounded independently after summation.
		out = append(out, ClearedBalance{
			AccountID: accountID,
			Cleared:   money.Add(start, clearedSum),
			Uncleared: money.Add(start, unclearedSum),
		})
	}
	return out
}
