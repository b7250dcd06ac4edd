package ledger

import (
	"sort"

	"github.com/ledgerd/ledgerd/pkg/money"
)

// Retotal recomputes every derived field of a month from its raw transaction
// lists: TotalIncome, TotalExpenses, the per-account income/expenses/
// netChange/endBalance, and the per-category spent/endBalance.
//
// StartBalance and Allocated values are source data and are preserved; balances
// are synthesized (seeded with zero) for accounts and categories that gained
// their first activity this month. Category end balances include Allocated only
// when AllocationsFinalized is set.
//
// The function is pure and idempotent: running it on its own output returns the
// same document.
func Retotal(m MonthlyLedger) MonthlyLedger {
	out := m.Clone()

	out.TotalIncome = money.Sum(incomeAmounts(m)...)
	out.TotalExpenses = money.Sum(expenseAmounts(m)...)
	out.AccountBalances = retotalAccounts(m)
	out.CategoryBalances = retotalCategories(m)

	return out
}

func incomeAmounts(m MonthlyLedger) []float64 {
	xs := make([]float64, 0, len(m.Income))
	for _, e := range m.Income {
		xs = append(xs, e.Amount)
	}
	return xs
}

func expenseAmounts(m MonthlyLedger) []float64 {
	xs := make([]float64, 0, len(m.Expenses))
	for _, e := range m.Expenses {
		xs = append(xs, e.Amount)
	}
	return xs
}

// accountFlows collects the signed in/out amounts per account across all four
// entry kinds. Transfers count as outflow on the source and inflow on the
// destination; adjustments land on the side matching their sign.
type accountFlows struct {
	in  []float64
	out []float64
}

func flowsByAccount(m MonthlyLedger) map[string]*accountFlows {
	flows := map[string]*accountFlows{}
	get := func(accountID string) *accountFlows {
		f, ok := flows[accountID]
		if !ok {
			f = &accountFlows{}
			flows[accountID] = f
		}
		return f
	}

	for _, e := range m.Income {
		f := get(e.AccountID)
		f.in = append(f.in, e.Amount)
	}
	for _, e := range m.Expenses {
		f := get(e.AccountID)
		f.out = append(f.out, e.Amount)
	}
	for _, e := range m.Transfers {
		from := get(e.FromAccountID)
		from.out = append(from.out, -e.Amount)
		to := get(e.ToAccountID)
		to.in = append(to.in, e.Amount)
	}
	for _, e := range m.Adjustments {
		f := get(e.AccountID)
		if e.Amount >= 0 {
			f.in = append(f.in, e.Amount)
		} else {
			f.out = append(f.out, e.Amount)
		}
	}
	return flows
}

func retotalAccounts(m MonthlyLedger) []AccountBalance {
	flows := flowsByAccount(m)

	// Every account referenced by a transaction or an existing balance keeps a
	// balance entry, so carry-forward seeds survive months without activity.
	seen := map[string]bool{}
	accountIDs := make([]string, 0, len(flows)+len(m.AccountBalances))
	for _, b := range m.AccountBalances {
		if !seen[b.AccountID] {
			seen[b.AccountID] = true
			accountIDs = append(accountIDs, b.AccountID)
		}
	}
	for accountID := range flows {
		if !seen[accountID] {
			seen[accountID] = true
			accountIDs = append(accountIDs, accountID)
		}
	}
	sort.Strings(accountIDs)

	balances := make([]AccountBalance, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		start := 0.0
		if existing, ok := m.AccountBalanceFor(accountID); ok {
			start = money.Round2(existing.StartBalance)
		}

		var in, out float64
		if f, ok := flows[accountID]; ok {
			in = money.Sum(f.in...)
			out = money.Sum(f.out...)
		}

		netChange := money.Add(in, out)
		balances = append(balances, AccountBalance{
			AccountID:    accountID,
			StartBalance: start,
			Income:       in,
			Expenses:     out,
			NetChange:    netChange,
			EndBalance:   money.Add(start, netChange),
		})
	}
	return balances
}

func retotalCategories(m MonthlyLedger) []CategoryBalance {
	spent := map[CategoryRef][]float64{}
	for _, e := range m.Expenses {
		ref := e.Category.Normalize()
		spent[ref] = append(spent[ref], e.Amount)
	}
	for _, e := range m.Adjustments {
		// Only category-tagged adjustments move category money; plain account
		// corrections stay out of category bookkeeping.
		if e.Category.IsUncategorized() {
			continue
		}
		ref := e.Category.Normalize()
		spent[ref] = append(spent[ref], e.Amount)
	}

	seen := map[CategoryRef]bool{}
	refs := make([]CategoryRef, 0, len(spent)+len(m.CategoryBalances))
	for _, b := range m.CategoryBalances {
		ref := b.Category.Normalize()
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	for ref := range spent {
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	sortCategoryRefs(refs)

	balances := make([]CategoryBalance, 0, len(refs))
	for _, ref := range refs {
		start, allocated := 0.0, 0.0
		if existing, ok := m.CategoryBalanceFor(ref); ok {
			start = money.Round2(existing.StartBalance)
			allocated = money.Round2(existing.Allocated)
		}

		catSpent := money.Sum(spent[ref]...)

		applied := 0.0
		if m.AllocationsFinalized {
			applied = allocated
		}

		balances = append(balances, CategoryBalance{
			Category:     ref,
			StartBalance: start,
			Allocated:    allocated,
			Spent:        catSpent,
			EndBalance:   money.Sum(start, applied, catSpent),
		})
	}
	return balances
}

// sortCategoryRefs orders specific categories by id with the uncategorized
// bucket last, keeping retotaled documents deterministic.
func sortCategoryRefs(refs []CategoryRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].IsUncategorized() != refs[j].IsUncategorized() {
			return !refs[i].IsUncategorized()
		}
		return refs[i].id < refs[j].id
	})
}
