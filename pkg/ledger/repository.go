package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrMonthNotFound = errors.New("ledger month not found")

const (
	entryKindIncome     = "income"
	entryKindExpense    = "expense"
	entryKindTransfer   = "transfer"
	entryKindAdjustment = "adjustment"
)

const (
	dateFormat = "2006-01-02"
	timeFormat = time.RFC3339Nano
)

// Repository is the document store contract for monthly ledgers. A month is
// read and written as one snapshot; the sequence map (which months exist) is
// derived from the stored rows, not kept separately.
type Repository interface {
	// GetMonth returns the authoritative current snapshot of a month.
	// Returns ErrMonthNotFound when the month has no document.
	GetMonth(ctx context.Context, budgetID string, year, month int) (MonthlyLedger, error)
	// StoreMonth persists a month snapshot. updateSequenceMap must be true
	// only when the write represents a genuinely new month; with it false a
	// write against a missing month fails with ErrMonthNotFound instead of
	// extending the sequence.
	StoreMonth(ctx context.Context, m MonthlyLedger, updateSequenceMap bool) error
	// MonthKeys returns the (year, month) keys that exist for a budget,
	// ordered from earliest to latest.
	MonthKeys(ctx context.Context, budgetID string) ([]MonthKey, error)
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r RepositoryImpl) GetMonth(ctx context.Context, budgetID string, year, month int) (MonthlyLedger, error) {
	query := `SELECT id, total_income, total_expenses, allocations_finalized, updated_at
				FROM ledger_month WHERE budget_id = $1 AND year = $2 AND month = $3`

	var (
		monthID   string
		ledgerDoc MonthlyLedger
		updatedAt string
	)
	ledgerDoc.BudgetID = budgetID
	ledgerDoc.Year = year
	ledgerDoc.Month = month

	err := r.db.QueryRowContext(ctx, query, budgetID, year, month).Scan(
		&monthID,
		&ledgerDoc.TotalIncome,
		&ledgerDoc.TotalExpenses,
		&ledgerDoc.AllocationsFinalized,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return MonthlyLedger{}, ErrMonthNotFound
		}
		err := fmt.Errorf("could not query ledger month: %w", err)
		log.Error(err)
		return MonthlyLedger{}, err
	}
	if ledgerDoc.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		err := fmt.Errorf("could not parse updated_at: %w", err)
		log.Error(err)
		return MonthlyLedger{}, err
	}

	if err := r.loadEntries(ctx, monthID, &ledgerDoc); err != nil {
		return MonthlyLedger{}, err
	}
	if err := r.loadBalances(ctx, monthID, &ledgerDoc); err != nil {
		return MonthlyLedger{}, err
	}

	return ledgerDoc, nil
}

func (r RepositoryImpl) loadEntries(ctx context.Context, monthID string, m *MonthlyLedger) error {
	query := `SELECT id, kind, account_id, from_account_id, to_account_id, category_id,
					amount, entry_date, cleared, payee, description
				FROM ledger_entry WHERE month_id = $1 ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, monthID)
	if err != nil {
		err := fmt.Errorf("could not query ledger entries: %w", err)
		log.Error(err)
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, kind                           string
			accountID, fromAccount, toAccount  sql.NullString
			categoryID                         sql.NullString
			amount                             float64
			entryDate                          string
			cleared                            bool
			payee, description                 string
		)
		if err := rows.Scan(&id, &kind, &accountID, &fromAccount, &toAccount, &categoryID,
			&amount, &entryDate, &cleared, &payee, &description); err != nil {
			err := fmt.Errorf("could not scan ledger entry: %w", err)
			log.Error(err)
			return err
		}
		date, err := time.Parse(dateFormat, entryDate)
		if err != nil {
			err := fmt.Errorf("could not parse entry date: %w", err)
			log.Error(err)
			return err
		}

		switch kind {
		case entryKindIncome:
			m.Income = append(m.Income, IncomeEntry{
				ID:          id,
				AccountID:   accountID.String,
				Amount:      amount,
				Date:        date,
				Payee:       payee,
				Description: description,
			})
		case entryKindExpense:
			m.Expenses = append(m.Expenses, ExpenseEntry{
				ID:          id,
				AccountID:   accountID.String,
				Category:    CategoryOf(categoryID.String),
				Amount:      amount,
				Date:        date,
				Cleared:     cleared,
				Payee:       payee,
				Description: description,
			})
		case entryKindTransfer:
			m.Transfers = append(m.Transfers, TransferEntry{
				ID:            id,
				FromAccountID: fromAccount.String,
				ToAccountID:   toAccount.String,
				Amount:        amount,
				Date:          date,
				Cleared:       cleared,
				Description:   description,
			})
		case entryKindAdjustment:
			m.Adjustments = append(m.Adjustments, AdjustmentEntry{
				ID:          id,
				AccountID:   accountID.String,
				Category:    CategoryOf(categoryID.String),
				Amount:      amount,
				Date:        date,
				Cleared:     cleared,
				Description: description,
			})
		default:
			err := fmt.Errorf("unknown ledger entry kind: %s", kind)
			log.Error(err)
			return err
		}
	}

	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over ledger entries: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r RepositoryImpl) loadBalances(ctx context.Context, monthID string, m *MonthlyLedger) error {
	accountQuery := `SELECT account_id, start_balance, income, expenses, net_change, end_balance
				FROM account_balance WHERE month_id = $1 ORDER BY account_id`
	rows, err := r.db.QueryContext(ctx, accountQuery, monthID)
	if err != nil {
		err := fmt.Errorf("could not query account balances: %w", err)
		log.Error(err)
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.StartBalance, &b.Income, &b.Expenses, &b.NetChange, &b.EndBalance); err != nil {
			err := fmt.Errorf("could not scan account balance: %w", err)
			log.Error(err)
			return err
		}
		m.AccountBalances = append(m.AccountBalances, b)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over account balances: %w", err)
		log.Error(err)
		return err
	}

	// The uncategorized bucket ('' sentinel) sorts last, matching the order
	// Retotal produces.
	categoryQuery := `SELECT category_id, start_balance, allocated, spent, end_balance
				FROM category_balance WHERE month_id = $1
				ORDER BY CASE WHEN category_id = '' THEN 1 ELSE 0 END, category_id`
	catRows, err := r.db.QueryContext(ctx, categoryQuery, monthID)
	if err != nil {
		err := fmt.Errorf("could not query category balances: %w", err)
		log.Error(err)
		return err
	}
	defer catRows.Close()
	for catRows.Next() {
		var (
			categoryID string
			b          CategoryBalance
		)
		if err := catRows.Scan(&categoryID, &b.StartBalance, &b.Allocated, &b.Spent, &b.EndBalance); err != nil {
			err := fmt.Errorf("could not scan category balance: %w", err)
			log.Error(err)
			return err
		}
		b.Category = CategoryOf(categoryID)
		m.CategoryBalances = append(m.CategoryBalances, b)
	}
	if err := catRows.Err(); err != nil {
		err := fmt.Errorf("error iterating over category balances: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r RepositoryImpl) StoreMonth(ctx context.Context, m MonthlyLedger, updateSequenceMap bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var monthID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM ledger_month WHERE budget_id = $1 AND year = $2 AND month = $3`,
		m.BudgetID, m.Year, m.Month,
	).Scan(&monthID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if !updateSequenceMap {
			// Writes that are not month creations must never extend the
			// sequence map.
			return ErrMonthNotFound
		}
		monthID = uuid.NewString()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ledger_month (id, budget_id, year, month, total_income, total_expenses, allocations_finalized, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			monthID, m.BudgetID, m.Year, m.Month,
			m.TotalIncome, m.TotalExpenses, m.AllocationsFinalized,
			time.Now().UTC().Format(timeFormat),
		)
		if err != nil {
			err := fmt.Errorf("could not insert ledger month: %w", err)
			log.Error(err)
			return err
		}
	case err != nil:
		err := fmt.Errorf("could not query ledger month: %w", err)
		log.Error(err)
		return err
	default:
		// Last write wins; updated_at is refreshed server-side on every store.
		_, err = tx.ExecContext(ctx,
			`UPDATE ledger_month SET total_income = $1, total_expenses = $2, allocations_finalized = $3, updated_at = $4
				WHERE id = $5`,
			m.TotalIncome, m.TotalExpenses, m.AllocationsFinalized,
			time.Now().UTC().Format(timeFormat), monthID,
		)
		if err != nil {
			err := fmt.Errorf("could not update ledger month: %w", err)
			log.Error(err)
			return err
		}
	}

	for _, table := range []string{"ledger_entry", "account_balance", "category_balance"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE month_id = $1", table), monthID); err != nil {
			err := fmt.Errorf("could not clear %s: %w", table, err)
			log.Error(err)
			return err
		}
	}

	if err := r.insertEntries(ctx, tx, monthID, m); err != nil {
		return err
	}
	if err := r.insertBalances(ctx, tx, monthID, m); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

func (r RepositoryImpl) insertEntries(ctx context.Context, tx *sql.Tx, monthID string, m MonthlyLedger) error {
	query := `INSERT INTO ledger_entry (
					id, month_id, kind, account_id, from_account_id, to_account_id,
					category_id, amount, entry_date, cleared, payee, description, position
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	position := 0
	insert := func(id, kind string, accountID, fromAccount, toAccount any, category CategoryRef,
		amount float64, date time.Time, cleared bool, payee, description string) error {
		if id == "" {
			id = uuid.NewString()
		}
		categoryID := ""
		if specific, ok := category.ID(); ok {
			categoryID = specific
		}
		position++
		_, err := tx.ExecContext(ctx, query,
			id, monthID, kind, accountID, fromAccount, toAccount,
			categoryID, amount, date.Format(dateFormat), cleared, payee, description, position,
		)
		if err != nil {
			err := fmt.Errorf("could not insert %s entry: %w", kind, err)
			log.Error(err)
			return err
		}
		return nil
	}

	for _, e := range m.Income {
		if err := insert(e.ID, entryKindIncome, e.AccountID, nil, nil, Uncategorized(),
			e.Amount, e.Date, false, e.Payee, e.Description); err != nil {
			return err
		}
	}
	for _, e := range m.Expenses {
		if err := insert(e.ID, entryKindExpense, e.AccountID, nil, nil, e.Category,
			e.Amount, e.Date, e.Cleared, e.Payee, e.Description); err != nil {
			return err
		}
	}
	for _, e := range m.Transfers {
		if err := insert(e.ID, entryKindTransfer, nil, e.FromAccountID, e.ToAccountID, Uncategorized(),
			e.Amount, e.Date, e.Cleared, "", e.Description); err != nil {
			return err
		}
	}
	for _, e := range m.Adjustments {
		if err := insert(e.ID, entryKindAdjustment, e.AccountID, nil, nil, e.Category,
			e.Amount, e.Date, e.Cleared, "", e.Description); err != nil {
			return err
		}
	}
	return nil
}

func (r RepositoryImpl) insertBalances(ctx context.Context, tx *sql.Tx, monthID string, m MonthlyLedger) error {
	accountQuery := `INSERT INTO account_balance (month_id, account_id, start_balance, income, expenses, net_change, end_balance)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, b := range m.AccountBalances {
		if _, err := tx.ExecContext(ctx, accountQuery,
			monthID, b.AccountID, b.StartBalance, b.Income, b.Expenses, b.NetChange, b.EndBalance); err != nil {
			err := fmt.Errorf("could not insert account balance: %w", err)
			log.Error(err)
			return err
		}
	}

	categoryQuery := `INSERT INTO category_balance (month_id, category_id, start_balance, allocated, spent, end_balance)
				VALUES ($1, $2, $3, $4, $5, $6)`
	for _, b := range m.CategoryBalances {
		categoryID := ""
		if specific, ok := b.Category.ID(); ok {
			categoryID = specific
		}
		if _, err := tx.ExecContext(ctx, categoryQuery,
			monthID, categoryID, b.StartBalance, b.Allocated, b.Spent, b.EndBalance); err != nil {
			err := fmt.Errorf("could not insert category balance: %w", err)
			log.Error(err)
			return err
		}
	}
	return nil
}

func (r RepositoryImpl) MonthKeys(ctx context.Context, budgetID string) ([]MonthKey, error) {
	query := `SELECT year, month FROM ledger_month WHERE budget_id = $1 ORDER BY year, month`
	rows, err := r.db.QueryContext(ctx, query, budgetID)
	if err != nil {
		err := fmt.Errorf("could not query month keys: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var keys []MonthKey
	for rows.Next() {
		var k MonthKey
		if err := rows.Scan(&k.Year, &k.Month); err != nil {
			err := fmt.Errorf("could not scan month key: %w", err)
			log.Error(err)
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over month keys: %w", err)
		log.Error(err)
		return nil, err
	}
	return keys, nil
}
