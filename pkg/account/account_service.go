package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ledgerd/ledgerd/internal/utils"
	log "github.com/sirupsen/logrus"
)

type AccountService interface {
	Get(ctx context.Context, budgetID, accountID string) (Account, error)
	GetAll(ctx context.Context, budgetID string) ([]Account, error)
	Create(ctx context.Context, account Account) (Account, error)
	Update(ctx context.Context, account Account) (bool, error)
	Delete(ctx context.Context, budgetID, accountID string) (bool, error)
}

type AccountServiceImpl struct {
	repo  AccountRepo
	clock utils.Clock
}

func NewAccountService(repo AccountRepo, clock utils.Clock) *AccountServiceImpl {
	return &AccountServiceImpl{repo: repo, clock: clock}
}

func (s *AccountServiceImpl) Get(ctx context.Context, budgetID, accountID string) (Account, error) {
	return s.repo.Get(ctx, budgetID, accountID)
}

func (s *AccountServiceImpl) GetAll(ctx context.Context, budgetID string) ([]Account, error) {
	return s.repo.GetAll(ctx, budgetID)
}

func (s *AccountServiceImpl) Create(ctx context.Context, account Account) (Account, error) {
	if strings.TrimSpace(account.Name) == "" {
		return Account{}, fmt.Errorf("account name must not be empty")
	}
	account.ID = uuid.NewString()
	account.CreatedAt = s.clock.Now()

	if err := s.repo.Store(ctx, account); err != nil {
		return Account{}, err
	}
	return account, nil
}

func (s *AccountServiceImpl) Update(ctx context.Context, account Account) (bool, error) {
	if strings.TrimSpace(account.Name) == "" {
		return false, fmt.Errorf("account name must not be empty")
	}
	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		return false, err
	}
	if !updated {
		log.Warnf("account not updated, probably because it does not exist (%s)", account.ID)
		return false, nil
	}
	return true, nil
}

func (s *AccountServiceImpl) Delete(ctx context.Context, budgetID, accountID string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, budgetID, accountID)
	if err != nil {
		return false, err
	}
	if !deleted {
		log.Warnf("account not deleted, probably because it does not exist (%s)", accountID)
		return false, nil
	}
	return true, nil
}
