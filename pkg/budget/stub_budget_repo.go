package budget

import (
	"context"
	"sort"
)

type StubBudgetRepo struct {
	data map[string]Budget
}

func NewStubBudgetRepo() *StubBudgetRepo {
	return &StubBudgetRepo{data: map[string]Budget{}}
}

func (s *StubBudgetRepo) Store(ctx context.Context, budget Budget) error {
	s.data[budget.ID] = budget
	return nil
}

func (s *StubBudgetRepo) Get(ctx context.Context, budgetID string) (Budget, error) {
	budget, ok := s.data[budgetID]
	if !ok {
		return Budget{}, ErrBudgetNotFound
	}
	return budget, nil
}

func (s *StubBudgetRepo) GetAll(ctx context.Context) ([]Budget, error) {
	budgets := make([]Budget, 0, len(s.data))
	for _, budget := range s.data {
		budgets = append(budgets, budget)
	}
	sort.Slice(budgets, func(i, j int) bool { return budgets[i].Name < budgets[j].Name })
	return budgets, nil
}

func (s *StubBudgetRepo) Update(ctx context.Context, budget Budget) (bool, error) {
	existing, ok := s.data[budget.ID]
	if !ok {
		return false, nil
	}
	existing.Name = budget.Name
	s.data[budget.ID] = existing
	return true, nil
}

func (s *StubBudgetRepo) Delete(ctx context.Context, budgetID string) (bool, error) {
	if _, ok := s.data[budgetID]; !ok {
		return false, nil
	}
	delete(s.data, budgetID)
	return true, nil
}

func (s *StubBudgetRepo) Cleanup() {
	s.data = map[string]Budget{}
}
