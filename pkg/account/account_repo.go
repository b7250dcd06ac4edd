package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrAccountNotFound = errors.New("account not found")

type AccountRepo interface {
	Store(ctx context.Context, account Account) error
	Get(ctx context.Context, budgetID, accountID string) (Account, error)
	GetAll(ctx context.Context, budgetID string) ([]Account, error)
	Update(ctx context.Context, account Account) (bool, error)
	Delete(ctx context.Context, budgetID, accountID string) (bool, error)
}

type AccountRepoImpl struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepoImpl {
	return &AccountRepoImpl{db: db}
}

func (ai AccountRepoImpl) Store(ctx context.Context, account Account) error {
	query := `INSERT INTO account (id, budget_id, name, created_at) VALUES ($1, $2, $3, $4)`
	_, err := ai.db.ExecContext(ctx, query,
		account.ID, account.BudgetID, account.Name, account.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		err := fmt.Errorf("could not insert account: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (ai AccountRepoImpl) Get(ctx context.Context, budgetID, accountID string) (Account, error) {
	query := `SELECT id, budget_id, name, created_at FROM account WHERE budget_id = $1 AND id = $2`
	var (
		account   Account
		createdAt string
	)
	err := ai.db.QueryRowContext(ctx, query, budgetID, accountID).Scan(
		&account.ID, &account.BudgetID, &account.Name, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		err := fmt.Errorf("could not query account: %w", err)
		log.Error(err)
		return Account{}, err
	}
	if account.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		err := fmt.Errorf("could not parse created_at: %w", err)
		log.Error(err)
		return Account{}, err
	}
	return account, nil
}

func (ai AccountRepoImpl) GetAll(ctx context.Context, budgetID string) ([]Account, error) {
	query := `SELECT id, budget_id, name, created_at FROM account WHERE budget_id = $1 ORDER BY name`
	rows, err := ai.db.QueryContext(ctx, query, budgetID)
	if err != nil {
		err := fmt.Errorf("could not query accounts: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var (
			account   Account
			createdAt string
		)
		if err := rows.Scan(&account.ID, &account.BudgetID, &account.Name, &createdAt); err != nil {
			err := fmt.Errorf("could not scan account: %w", err)
			log.Error(err)
			return nil, err
		}
		if account.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			err := fmt.Errorf("could not parse created_at: %w", err)
			log.Error(err)
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over accounts: %w", err)
		log.Error(err)
		return nil, err
	}
	return accounts, nil
}

func (ai AccountRepoImpl) Update(ctx context.Context, account Account) (bool, error) {
	query := `UPDATE account SET name = $1 WHERE budget_id = $2 AND id = $3`
	result, err := ai.db.ExecContext(ctx, query, account.Name, account.BudgetID, account.ID)
	if err != nil {
		err := fmt.Errorf("could not update account: %w", err)
		log.Error(err)
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("could not get rows affected: %w", err)
		log.Error(err)
		return false, err
	}
	return rowsAffected == 1, nil
}

func (ai AccountRepoImpl) Delete(ctx context.Context, budgetID, accountID string) (bool, error) {
	query := `DELETE FROM account WHERE budget_id = $1 AND id = $2`
	result, err := ai.db.ExecContext(ctx, query, budgetID, accountID)
	if err != nil {
		err := fmt.Errorf("could not delete account: %w", err)
		log.Error(err)
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("could not get rows affected: %w", err)
		log.Error(err)
		return false, err
	}
	return rowsAffected == 1, nil
}
