package ledger

import (
	"time"
)

// CategoryRef identifies the category a transaction or balance belongs to.
// It is either a specific category or the "uncategorized" bucket; the zero
// value means uncategorized, so a missing category id can never be confused
// with a real one.
type CategoryRef struct {
	id            string
	uncategorized bool
}

// CategoryOf returns a reference to a specific category. An empty id yields
// the uncategorized bucket.
func CategoryOf(id string) CategoryRef {
	if id == "" {
		return Uncategorized()
	}
	return CategoryRef{id: id}
}

// Uncategorized returns the reference used for transactions without a category.
func Uncategorized() CategoryRef {
	return CategoryRef{uncategorized: true}
}

// ID returns the category id and true when the reference points to a specific
// category.
func (r CategoryRef) ID() (string, bool) {
	if r.IsUncategorized() {
		return "", false
	}
	return r.id, true
}

func (r CategoryRef) IsUncategorized() bool {
	return r.uncategorized || r.id == ""
}

// Normalize collapses the two zero-ish representations into one so CategoryRef
// can be used as a map key.
func (r CategoryRef) Normalize() CategoryRef {
	if r.IsUncategorized() {
		return Uncategorized()
	}
	return r
}

func (r CategoryRef) String() string {
	if r.IsUncategorized() {
		return "uncategorized"
	}
	return r.id
}

// MonthKey identifies one ledger month within a budget.
type MonthKey struct {
	Year  int
	Month int // 1-12
}

// Ordinal returns the month's position on a continuous month axis, so
// adjacency checks roll over year boundaries correctly.
func (k MonthKey) Ordinal() int {
	return k.Year*12 + k.Month - 1
}

// Next returns the immediately following calendar month.
func (k MonthKey) Next() MonthKey {
	if k.Month == 12 {
		return MonthKey{Year: k.Year + 1, Month: 1}
	}
	return MonthKey{Year: k.Year, Month: k.Month + 1}
}

// Prev returns the immediately preceding calendar month.
func (k MonthKey) Prev() MonthKey {
	if k.Month == 1 {
		return MonthKey{Year: k.Year - 1, Month: 12}
	}
	return MonthKey{Year: k.Year, Month: k.Month - 1}
}

// IncomeEntry is money coming into an account. Income has no cleared concept;
// it always counts towards both cleared and uncleared balances.
type IncomeEntry struct {
	ID          string
	AccountID   string
	Amount      float64
	Date        time.Time
	Payee       string
	Description string
}

// ExpenseEntry is money leaving an account. Amount is signed negative for
// outflow.
type ExpenseEntry struct {
	ID          string
	AccountID   string
	Category    CategoryRef
	Amount      float64
	Date        time.Time
	Cleared     bool
	Payee       string
	Description string
}

// TransferEntry moves money between two accounts of the same budget. Amount is
// unsigned and is applied with opposite sign at each end.
type TransferEntry struct {
	ID            string
	FromAccountID string
	ToAccountID   string
	Amount        float64
	Date          time.Time
	Cleared       bool
	Description   string
}

// AdjustmentEntry is a signed manual correction against an account, optionally
// tagged with a category so it flows into that category's spent amount.
type AdjustmentEntry struct {
	ID          string
	AccountID   string
	Category    CategoryRef
	Amount      float64
	Date        time.Time
	Cleared     bool
	Description string
}

// CategoryBalance tracks one category through one month. StartBalance and
// Allocated are source values; Spent and EndBalance are derived by Retotal.
type CategoryBalance struct {
	Category     CategoryRef
	StartBalance float64
	Allocated    float64
	Spent        float64
	EndBalance   float64
}

// AccountBalance tracks one account through one month. StartBalance is the
// carry-forward seed; the remaining fields are derived by Retotal.
type AccountBalance struct {
	AccountID    string
	StartBalance float64
	Income       float64
	Expenses     float64
	NetChange    float64
	EndBalance   float64
}

// MonthlyLedger is the per-(budget, year, month) document holding raw
// transactions and the balances derived from them. TotalIncome and
// TotalExpenses are always the sums of the corresponding entry lists and are
// never edited independently.
type MonthlyLedger struct {
	BudgetID             string
	Year                 int
	Month                int
	Income               []IncomeEntry
	Expenses             []ExpenseEntry
	Transfers            []TransferEntry
	Adjustments          []AdjustmentEntry
	CategoryBalances     []CategoryBalance
	AccountBalances      []AccountBalance
	TotalIncome          float64
	TotalExpenses        float64
	AllocationsFinalized bool
	UpdatedAt            time.Time
}

// Key returns the month's position in the budget's sequence.
func (m MonthlyLedger) Key() MonthKey {
	return MonthKey{Year: m.Year, Month: m.Month}
}

// AccountBalanceFor returns the balance entry for the given account, if any.
func (m MonthlyLedger) AccountBalanceFor(accountID string) (AccountBalance, bool) {
	for _, b := range m.AccountBalances {
		if b.AccountID == accountID {
			return b, true
		}
	}
	return AccountBalance{}, false
}

// CategoryBalanceFor returns the balance entry for the given category, if any.
func (m MonthlyLedger) CategoryBalanceFor(ref CategoryRef) (CategoryBalance, bool) {
	ref = ref.Normalize()
	for _, b := range m.CategoryBalances {
		if b.Category.Normalize() == ref {
			return b, true
		}
	}
	return CategoryBalance{}, false
}

// Clone returns a deep copy of the ledger so pure transformations never alias
// the caller's slices.
func (m MonthlyLedger) Clone() MonthlyLedger {
	out := m
	out.Income = append([]IncomeEntry(nil), m.Income...)
	out.Expenses = append([]ExpenseEntry(nil), m.Expenses...)
	out.Transfers = append([]TransferEntry(nil), m.Transfers...)
	out.Adjustments = append([]AdjustmentEntry(nil), m.Adjustments...)
	out.CategoryBalances = append([]CategoryBalance(nil), m.CategoryBalances...)
	out.AccountBalances = append([]AccountBalance(nil), m.AccountBalances...)
	return out
}
