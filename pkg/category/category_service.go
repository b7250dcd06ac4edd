package category

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ledgerd/ledgerd/internal/utils"
	log "github.com/sirupsen/logrus"
)

type CategoryService interface {
	Get(ctx context.Context, budgetID, categoryID string) (Category, error)
	GetAll(ctx context.Context, budgetID string) ([]Category, error)
	Create(ctx context.Context, category Category) (Category, error)
	Update(ctx context.Context, category Category) (bool, error)
	Delete(ctx context.Context, budgetID, categoryID string) (bool, error)
}

type CategoryServiceImpl struct {
	repo  CategoryRepo
	clock utils.Clock
}

func NewCategoryService(repo CategoryRepo, clock utils.Clock) *CategoryServiceImpl {
	return &CategoryServiceImpl{repo: repo, clock: clock}
}

func (s *CategoryServiceImpl) Get(ctx context.Context, budgetID, categoryID string) (Category, error) {
	return s.repo.Get(ctx, budgetID, categoryID)
}

func (s *CategoryServiceImpl) GetAll(ctx context.Context, budgetID string) ([]Category, error) {
	return s.repo.GetAll(ctx, budgetID)
}

func (s *CategoryServiceImpl) Create(ctx context.Context, category Category) (Category, error) {
	if strings.TrimSpace(category.Name) == "" {
		return Category{}, fmt.Errorf("category name must not be empty")
	}
	category.ID = uuid.NewString()
	category.CreatedAt = s.clock.Now()

	if err := s.repo.Store(ctx, category); err != nil {
		return Category{}, err
	}
	return category, nil
}

func (s *CategoryServiceImpl) Update(ctx context.Context, category Category) (bool, error) {
	if strings.TrimSpace(category.Name) == "" {
		return false, fmt.Errorf("category name must not be empty")
	}
	updated, err := s.repo.Update(ctx, category)
	if err != nil {
		return false, err
	}
	if !updated {
		log.Warnf("category not updated, probably because it does not exist (%s)", category.ID)
		return false, nil
	}
	return true, nil
}

func (s *CategoryServiceImpl) Delete(ctx context.Context, budgetID, categoryID string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, budgetID, categoryID)
	if err != nil {
		return false, err
	}
	if !deleted {
		log.Warnf("category not deleted, probably because it does not exist (%s)", categoryID)
		return false, nil
	}
	return true, nil
}
