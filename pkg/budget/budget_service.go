package budget

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ledgerd/ledgerd/internal/utils"
	log "github.com/sirupsen/logrus"
)

type BudgetService interface {
	Get(ctx context.Context, budgetID string) (Budget, error)
	GetAll(ctx context.Context) ([]Budget, error)
	Create(ctx context.Context, budget Budget) (Budget, error)
	Update(ctx context.Context, budget Budget) (bool, error)
	Delete(ctx context.Context, budgetID string) (bool, error)
}

type BudgetServiceImpl struct {
	repo  BudgetRepo
	clock utils.Clock
}

func NewBudgetService(repo BudgetRepo, clock utils.Clock) *BudgetServiceImpl {
	return &BudgetServiceImpl{repo: repo, clock: clock}
}

func (s *BudgetServiceImpl) Get(ctx context.Context, budgetID string) (Budget, error) {
	return s.repo.Get(ctx, budgetID)
}

func (s *BudgetServiceImpl) GetAll(ctx context.Context) ([]Budget, error) {
	return s.repo.GetAll(ctx)
}

func (s *BudgetServiceImpl) Create(ctx context.Context, budget Budget) (Budget, error) {
	if strings.TrimSpace(budget.Name) == "" {
		return Budget{}, fmt.Errorf("budget name must not be empty")
	}
	budget.ID = uuid.NewString()
	budget.CreatedAt = s.clock.Now()

	if err := s.repo.Store(ctx, budget); err != nil {
		return Budget{}, err
	}
	return budget, nil
}

func (s *BudgetServiceImpl) Update(ctx context.Context, budget Budget) (bool, error) {
	if strings.TrimSpace(budget.Name) == "" {
		return false, fmt.Errorf("budget name must not be empty")
	}
	updated, err := s.repo.Update(ctx, budget)
	if err != nil {
		return false, err
	}
	if !updated {
		log.Warnf("budget not updated, probably because it does not exist (%s)", budget.ID)
		return false, nil
	}
	return true, nil
}

func (s *BudgetServiceImpl) Delete(ctx context.Context, budgetID string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, budgetID)
	if err != nil {
		return false, err
	}
	if !deleted {
		log.Warnf("budget not deleted, probably because it does not exist (%s)", budgetID)
		return false, nil
	}
	return true, nil
}
