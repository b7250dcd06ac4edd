package account

import (
	"context"
	"sort"
)

type StubAccountRepo struct {
	data map[string]Account
}

func NewStubAccountRepo() *StubAccountRepo {
	return &StubAccountRepo{data: map[string]Account{}}
}

func (s *StubAccountRepo) Store(ctx context.Context, account Account) error {
	s.data[account.ID] = account
	return nil
}

func (s *StubAccountRepo) Get(ctx context.Context, budgetID, accountID string) (Account, error) {
	account, ok := s.data[accountID]
	if !ok || account.BudgetID != budgetID {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (s *StubAccountRepo) GetAll(ctx context.Context, budgetID string) ([]Account, error) {
	accounts := make([]Account, 0, len(s.data))
	for _, account := range s.data {
		if account.BudgetID == budgetID {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return accounts, nil
}

func (s *StubAccountRepo) Update(ctx context.Context, account Account) (bool, error) {
	existing, ok := s.data[account.ID]
	if !ok || existing.BudgetID != account.BudgetID {
		return false, nil
	}
	existing.Name = account.Name
	s.data[account.ID] = existing
	return true, nil
}

func (s *StubAccountRepo) Delete(ctx context.Context, budgetID, accountID string) (bool, error) {
	account, ok := s.data[accountID]
	if !ok || account.BudgetID != budgetID {
		return false, nil
	}
	delete(s.data, accountID)
	return true, nil
}

func (s *StubAccountRepo) Cleanup() {
	s.data = map[string]Account{}
}
