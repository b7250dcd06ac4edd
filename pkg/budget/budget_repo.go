package budget

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrBudgetNotFound = errors.New("budget not found")

type BudgetRepo interface {
	Store(ctx context.Context, budget Budget) error
	Get(ctx context.Context, budgetID string) (Budget, error)
	GetAll(ctx context.Context) ([]Budget, error)
	Update(ctx context.Context, budget Budget) (bool, error)
	Delete(ctx context.Context, budgetID string) (bool, error)
}

type BudgetRepoImpl struct {
	db *sql.DB
}

func NewBudgetRepo(db *sql.DB) *BudgetRepoImpl {
	return &BudgetRepoImpl{db: db}
}

func (bi BudgetRepoImpl) Store(ctx context.Context, budget Budget) error {
	query := `INSERT INTO budget (id, name, created_at) VALUES ($1, $2, $3)`
	_, err := bi.db.ExecContext(ctx, query,
		budget.ID, budget.Name, budget.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		err := fmt.Errorf("could not insert budget: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (bi BudgetRepoImpl) Get(ctx context.Context, budgetID string) (Budget, error) {
	query := `SELECT id, name, created_at FROM budget WHERE id = $1`
	var (
		budget    Budget
		createdAt string
	)
	err := bi.db.QueryRowContext(ctx, query, budgetID).Scan(&budget.ID, &budget.Name, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Budget{}, ErrBudgetNotFound
		}
		err := fmt.Errorf("could not query budget: %w", err)
		log.Error(err)
		return Budget{}, err
	}
	if budget.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		err := fmt.Errorf("could not parse created_at: %w", err)
		log.Error(err)
		return Budget{}, err
	}
	return budget, nil
}

func (bi BudgetRepoImpl) GetAll(ctx context.Context) ([]Budget, error) {
	query := `SELECT id, name, created_at FROM budget ORDER BY name`
	rows, err := bi.db.QueryContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query budgets: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var budgets []Budget
	for rows.Next() {
		var (
			budget    Budget
			createdAt string
		)
		if err := rows.Scan(&budget.ID, &budget.Name, &createdAt); err != nil {
			err := fmt.Errorf("could not scan budget: %w", err)
			log.Error(err)
			return nil, err
		}
		if budget.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			err := fmt.Errorf("could not parse created_at: %w", err)
			log.Error(err)
			return nil, err
		}
		budgets = append(budgets, budget)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over budgets: %w", err)
		log.Error(err)
		return nil, err
	}
	return budgets, nil
}

func (bi BudgetRepoImpl) Update(ctx context.Context, budget Budget) (bool, error) {
	query := `UPDATE budget SET name = $1 WHERE id = $2`
	result, err := bi.db.ExecContext(ctx, query, budget.Name, budget.ID)
	if err != nil {
		err := fmt.Errorf("could not update budget: %w", err)
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

func (bi BudgetRepoImpl) Delete(ctx context.Context, budgetID string) (bool, error) {
	query := `DELETE FROM budget WHERE id = $1`
	result, err := bi.db.ExecContext(ctx, query, budgetID)
	if err != nil {
		err := fmt.Errorf("could not delete budget: %w", err)
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
