package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoryRepo interface {
	Store(ctx context.Context, category Category) error
	Get(ctx context.Context, budgetID, categoryID string) (Category, error)
	GetAll(ctx context.Context, budgetID string) ([]Category, error)
	Update(ctx context.Context, category Category) (bool, error)
	Delete(ctx context.Context, budgetID, categoryID string) (bool, error)
}

type CategoryRepoImpl struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepoImpl {
	return &CategoryRepoImpl{db: db}
}

func (ci CategoryRepoImpl) Store(ctx context.Context, category Category) error {
	query := `INSERT INTO category (id, budget_id, name, created_at) VALUES ($1, $2, $3, $4)`
	_, err := ci.db.ExecContext(ctx, query,
		category.ID, category.BudgetID, category.Name, category.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		err := fmt.Errorf("could not insert category: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (ci CategoryRepoImpl) Get(ctx context.Context, budgetID, categoryID string) (Category, error) {
	query := `SELECT id, budget_id, name, created_at FROM category WHERE budget_id = $1 AND id = $2`
	var (
		category  Category
		createdAt string
	)
	err := ci.db.QueryRowContext(ctx, query, budgetID, categoryID).Scan(
		&category.ID, &category.BudgetID, &category.Name, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Category{}, ErrCategoryNotFound
		}
		err := fmt.Errorf("could not query category: %w", err)
		log.Error(err)
		return Category{}, err
	}
	if category.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		err := fmt.Errorf("could not parse created_at: %w", err)
		log.Error(err)
		return Category{}, err
	}
	return category, nil
}

func (ci CategoryRepoImpl) GetAll(ctx context.Context, budgetID string) ([]Category, error) {
	query := `SELECT id, budget_id, name, created_at FROM category WHERE budget_id = $1 ORDER BY name`
	rows, err := ci.db.QueryContext(ctx, query, budgetID)
	if err != nil {
		err := fmt.Errorf("could not query categories: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var (
			category  Category
			createdAt string
		)
		if err := rows.Scan(&category.ID, &category.BudgetID, &category.Name, &createdAt); err != nil {
			err := fmt.Errorf("could not scan category: %w", err)
			log.Error(err)
			return nil, err
		}
		if category.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			err := fmt.Errorf("could not parse created_at: %w", err)
			log.Error(err)
			return nil, err
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over categories: %w", err)
		log.Error(err)
		return nil, err
	}
	return categories, nil
}

func (ci CategoryRepoImpl) Update(ctx context.Context, category Category) (bool, error) {
	query := `UPDATE category SET name = $1 WHERE budget_id = $2 AND id = $3`
	result, err := ci.db.ExecContext(ctx, query, category.Name, category.BudgetID, category.ID)
	if err != nil {
		err := fmt.Errorf("could not update category: %w", err)
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

func (ci CategoryRepoImpl) Delete(ctx context.Context, budgetID, categoryID string) (bool, error) {
	query := `DELETE FROM category WHERE budget_id = $1 AND id = $2`
	result, err := ci.db.ExecContext(ctx, query, budgetID, categoryID)
	if err != nil {
		err := fmt.Errorf("could not delete category: %w", err)
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
