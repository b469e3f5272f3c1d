package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

var _ ports.Store = (*Store)(nil)

type budgetKey struct {
	year, month int
}

// Store keeps the whole ledger in process memory. Every method takes the
// same lock, so compound operations are atomic with respect to readers.
type Store struct {
	mu       sync.Mutex
	txns     map[string]core.Transaction
	order    []string
	upcoming map[string]core.UpcomingPayment
	budgets  map[budgetKey]core.Budget
}

func New() *Store {
	return &Store{
		txns:     map[string]core.Transaction{},
		upcoming: map[string]core.UpcomingPayment{},
		budgets:  map[budgetKey]core.Budget{},
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertTxnLocked(t)
}

func (s *Store) insertTxnLocked(t core.Transaction) error {
	if _, ok := s.txns[t.ID]; ok {
		return fmt.Errorf("transaction %s already exists", t.ID)
	}
	s.txns[t.ID] = t
	s.order = append(s.order, t.ID)
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txns[t.ID]; !ok {
		return fmt.Errorf("update transaction %s: %w", t.ID, core.ErrNotFound)
	}
	s.txns[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txns[id]; !ok {
		return fmt.Errorf("delete transaction %s: %w", id, core.ErrNotFound)
	}
	delete(s.txns, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txns[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

// ListTransactions returns all transactions, newest date first; ties keep
// the most recently inserted first.
func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(func(core.Transaction) bool { return true }), nil
}

func (s *Store) ListTransactionsBetween(_ context.Context, from, to core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(func(t core.Transaction) bool {
		return t.Date.Compare(from) >= 0 && t.Date.Compare(to) < 0
	}), nil
}

func (s *Store) listLocked(keep func(core.Transaction) bool) []core.Transaction {
	out := make([]core.Transaction, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		t := s.txns[s.order[i]]
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

// ReplaceTransactions swaps the whole transaction set. Input is checked for
// duplicate IDs first so a rejected call leaves the store untouched.
func (s *Store) ReplaceTransactions(_ context.Context, txns []core.Transaction) error {
	next := make(map[string]core.Transaction, len(txns))
	order := make([]string, 0, len(txns))
	for _, t := range txns {
		if _, ok := next[t.ID]; ok {
			return fmt.Errorf("replace transactions: duplicate id %s", t.ID)
		}
		next[t.ID] = t
		order = append(order, t.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns = next
	s.order = order
	return nil
}

func (s *Store) InsertUpcoming(_ context.Context, p core.UpcomingPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertUpcomingLocked(p)
}

func (s *Store) insertUpcomingLocked(p core.UpcomingPayment) error {
	if _, ok := s.upcoming[p.ID]; ok {
		return fmt.Errorf("upcoming payment %s already exists", p.ID)
	}
	s.upcoming[p.ID] = p
	return nil
}

func (s *Store) UpdateUpcoming(_ context.Context, p core.UpcomingPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.upcoming[p.ID]; !ok {
		return fmt.Errorf("update upcoming payment %s: %w", p.ID, core.ErrNotFound)
	}
	s.upcoming[p.ID] = p
	return nil
}

func (s *Store) DeleteUpcoming(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.upcoming[id]; !ok {
		return fmt.Errorf("delete upcoming payment %s: %w", id, core.ErrNotFound)
	}
	delete(s.upcoming, id)
	return nil
}

func (s *Store) GetUpcoming(_ context.Context, id string) (core.UpcomingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.upcoming[id]
	if !ok {
		return core.UpcomingPayment{}, fmt.Errorf("get upcoming payment %s: %w", id, core.ErrNotFound)
	}
	return p, nil
}

// ListUpcoming returns payments ordered by due date, soonest first.
func (s *Store) ListUpcoming(_ context.Context) ([]core.UpcomingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.UpcomingPayment, 0, len(s.upcoming))
	for _, p := range s.upcoming {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].DueDate.Compare(out[j].DueDate); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ConvertUpcoming(_ context.Context, txn core.Transaction, successor *core.UpcomingPayment, originalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.upcoming[originalID]; !ok {
		return fmt.Errorf("convert upcoming payment %s: %w", originalID, core.ErrNotFound)
	}
	if _, ok := s.txns[txn.ID]; ok {
		return fmt.Errorf("convert upcoming payment: transaction %s already exists", txn.ID)
	}
	if successor != nil {
		if _, ok := s.upcoming[successor.ID]; ok {
			return fmt.Errorf("convert upcoming payment: successor %s already exists", successor.ID)
		}
	}

	// All checks passed; the writes below cannot fail.
	_ = s.insertTxnLocked(txn)
	if successor != nil {
		_ = s.insertUpcomingLocked(*successor)
	}
	delete(s.upcoming, originalID)
	return nil
}

func (s *Store) GetBudget(_ context.Context, year, month int) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[budgetKey{year, month}]
	if !ok {
		return core.Budget{}, fmt.Errorf("get budget %d-%02d: %w", year, month, core.ErrNotFound)
	}
	return b, nil
}

func (s *Store) SaveBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[budgetKey{b.Year, b.Month}] = b
	return nil
}
