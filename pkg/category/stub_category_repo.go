package category

import (
	"context"
	"sort"
)

type StubCategoryRepo struct {
	data map[string]Category
}

func NewStubCategoryRepo() *StubCategoryRepo {
	return &StubCategoryRepo{data: map[string]Category{}}
}

func (s *StubCategoryRepo) Store(ctx context.Context, category Category) error {
	s.data[category.ID] = category
	return nil
}

func (s *StubCategoryRepo) Get(ctx context.Context, budgetID, categoryID string) (Category, error) {
	category, ok := s.data[categoryID]
	if !ok || category.BudgetID != budgetID {
		return Category{}, ErrCategoryNotFound
	}
	return category, nil
}

func (s *StubCategoryRepo) GetAll(ctx context.Context, budgetID string) ([]Category, error) {
	categories := make([]Category, 0, len(s.data))
	for _, category := range s.data {
		if category.BudgetID == budgetID {
			categories = append(categories, category)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *StubCategoryRepo) Update(ctx context.Context, category Category) (bool, error) {
	existing, ok := s.data[category.ID]
	if !ok || existing.BudgetID != category.BudgetID {
		return false, nil
	}
	existing.Name = category.Name
	s.data[category.ID] = existing
	return true, nil
}

func (s *StubCategoryRepo) Delete(ctx context.Context, budgetID, categoryID string) (bool, error) {
	category, ok := s.data[categoryID]
	if !ok || category.BudgetID != budgetID {
		return false, nil
	}
	delete(s.data, categoryID)
	return true, nil
}

func (s *StubCategoryRepo) Cleanup() {
	s.data = map[string]Category{}
}
