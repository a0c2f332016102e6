// Package memory holds an in-memory ledger backend. It backs development
// runs without a database file and the engine's tests.
package memory

import (
	"context"
	"sync"

	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
)

var defaultCategories = []string{
	"🍔 Food",
	"🚕 Transport",
	"🎮 Entertainment",
	"🛒 Shopping",
	"💊 Health",
	"📦 Other",
}

type Store struct {
	mu         sync.Mutex
	nextID     int64
	ops        []core.Operation
	currencies []string
	categories []string
}

var _ ledger.Store = (*Store)(nil)

// New returns an empty store seeded with the default categories.
func New() *Store {
	return &Store{
		nextID:     1,
		categories: append([]string(nil), defaultCategories...),
	}
}

func (s *Store) AddOperation(_ context.Context, op core.Operation) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op.ID = s.nextID
	s.nextID++
	s.ops = append(s.ops, op)
	return op.ID, nil
}

func (s *Store) Balance(_ context.Context) (map[string]core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balances := make(map[string]core.Money)
	for _, op := range s.ops {
		b := balances[op.Currency]
		if op.Kind == core.Income {
			b.Cents += op.Amount.Cents
		} else {
			b.Cents -= op.Amount.Cents
		}
		balances[op.Currency] = b
	}
	return balances, nil
}

func (s *Store) OperationsByDate(_ context.Context, date core.Date) ([]core.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Operation
	for _, op := range s.ops {
		if op.Date.String() == date.String() {
			out = append(out, op)
		}
	}
	return out, nil
}

func (s *Store) DeleteOperation(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, op := range s.ops {
		if op.ID == id {
			s.ops = append(s.ops[:i], s.ops[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) UpdateOperationAmount(_ context.Context, id int64, amount core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.ops {
		if s.ops[i].ID == id {
			s.ops[i].Amount = amount
			return nil
		}
	}
	return nil
}

func (s *Store) ClearOperations(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = nil
	return nil
}

func (s *Store) MonthlyCategoryStats(_ context.Context, yearMonth string) ([]core.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct{ category, currency string }
	sums := make(map[key]int64)
	var order []key
	for _, op := range s.ops {
		if op.Kind != core.Expense || op.Date.YearMonth() != yearMonth {
			continue
		}
		k := key{op.Category, op.Currency}
		if _, seen := sums[k]; !seen {
			order = append(order, k)
		}
		sums[k] += op.Amount.Cents
	}

	totals := make([]core.CategoryTotal, 0, len(order))
	for _, k := range order {
		totals = append(totals, core.CategoryTotal{
			Category: k.category,
			Currency: k.currency,
			Total:    core.Money{Cents: sums[k]},
		})
	}
	return totals, nil
}

func (s *Store) AddCurrency(_ context.Context, code string) (bool, error) {
	code = core.NormalizeCurrency(code)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.currencies {
		if c == code {
			return false, nil
		}
	}
	s.currencies = append(s.currencies, code)
	return true, nil
}

func (s *Store) DeleteCurrency(_ context.Context, code string) error {
	code = core.NormalizeCurrency(code)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currencies = remove(s.currencies, code)
	return nil
}

func (s *Store) ListCurrencies(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.currencies...), nil
}

func (s *Store) AddCategory(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c == name {
			return false, nil
		}
	}
	s.categories = append(s.categories, name)
	return true, nil
}

func (s *Store) DeleteCategory(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = remove(s.categories, name)
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.categories...), nil
}

func remove(values []string, target string) []string {
	out := values[:0]
	for _, v := range values {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
