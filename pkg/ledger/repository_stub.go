package ledger

import (
	"context"
	"sync"
	"time"
)

// StubRepository is an in-memory Repository used by service and cascade tests.
// Documents are stored as deep copies so a stored month can never be mutated
// through a slice the caller still holds.
type StubRepository struct {
	mu     sync.Mutex
	months map[string]map[MonthKey]MonthlyLedger
	// StoreCalls records every (budget, key) write, in order, so tests can
	// assert which months a cascade touched.
	StoreCalls []MonthKey
}

func NewStubRepository() *StubRepository {
	return &StubRepository{months: map[string]map[MonthKey]MonthlyLedger{}}
}

func (s *StubRepository) GetMonth(ctx context.Context, budgetID string, year, month int) (MonthlyLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.months[budgetID][MonthKey{Year: year, Month: month}]
	if !ok {
		return MonthlyLedger{}, ErrMonthNotFound
	}
	return m.Clone(), nil
}

func (s *StubRepository) StoreMonth(ctx context.Context, m MonthlyLedger, updateSequenceMap bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := m.Key()
	if _, exists := s.months[m.BudgetID][key]; !exists && !updateSequenceMap {
		return ErrMonthNotFound
	}
	if s.months[m.BudgetID] == nil {
		s.months[m.BudgetID] = map[MonthKey]MonthlyLedger{}
	}
	stored := m.Clone()
	stored.UpdatedAt = time.Now().UTC()
	s.months[m.BudgetID][key] = stored
	s.StoreCalls = append(s.StoreCalls, key)
	return nil
}

func (s *StubRepository) MonthKeys(ctx context.Context, budgetID string) ([]MonthKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]MonthKey, 0, len(s.months[budgetID]))
	for k := range s.months[budgetID] {
		keys = append(keys, k)
	}
	sortMonthKeys(keys)
	return keys, nil
}

// Seed stores a month directly, bypassing the sequence map check.
func (s *StubRepository) Seed(m MonthlyLedger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.months[m.BudgetID] == nil {
		s.months[m.BudgetID] = map[MonthKey]MonthlyLedger{}
	}
	s.months[m.BudgetID][m.Key()] = m.Clone()
}

func (s *StubRepository) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.months = map[string]map[MonthKey]MonthlyLedger{}
	s.StoreCalls = nil
}

func sortMonthKeys(keys []MonthKey) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j].Ordinal() < keys[j-1].Ordinal(); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
}
