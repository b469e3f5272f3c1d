package services

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/storage/memory"
)

// interleavingStore runs during once, right after the first month query
// has read its rows, to land a write while a summary is being computed.
type interleavingStore struct {
	*memory.Store
	once   sync.Once
	during func()
}

func (s *interleavingStore) ListTransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	txns, err := s.Store.ListTransactionsBetween(ctx, from, to)
	s.once.Do(s.during)
	return txns, err
}

func TestAddTransactionValidatesEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.AddTransaction(ctx, core.Transaction{Title: "  ", Category: "Food", Date: core.NewDate(2025, 1, 1)})
	var verrs core.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if got, want := verrs.Fields(), []string{"title", "amount"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("fields = %v, want %v", got, want)
	}
	if all, _ := f.ledger.ListTransactions(ctx); len(all) != 0 {
		t.Fatalf("invalid transaction must not be stored, found %d", len(all))
	}
}

func TestGetTransactionReportsAbsence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	added, err := f.ledger.AddTransaction(ctx, expense(" Coffee ", 350, "Food", core.NewDate(2025, 2, 3)))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.ID == "" || added.Title != "Coffee" {
		t.Fatalf("expected generated id and trimmed title, got %+v", added)
	}

	got, found, err := f.ledger.GetTransaction(ctx, added.ID)
	if err != nil || !found || got.ID != added.ID {
		t.Fatalf("get existing: %+v %v %v", got, found, err)
	}
	_, found, err = f.ledger.GetTransaction(ctx, "nope")
	if err != nil || found {
		t.Fatalf("expected found=false without error, got %v %v", found, err)
	}

	if err := f.ledger.DeleteTransaction(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting missing transaction, got %v", err)
	}
}

func TestSummaryReflectsLatestWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.ledger.AddTransaction(ctx, expense("Lunch", 1200, "Food", core.NewDate(2025, 3, 3))); err != nil {
		t.Fatal(err)
	}
	sum, err := f.ledger.Summary(ctx, 2025, 3)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Expense.Cents != 1200 {
		t.Fatalf("expected 1200 expense, got %d", sum.Expense.Cents)
	}

	salary := core.Transaction{Title: "Salary", Amount: core.Money{Cents: 300000}, Category: "Salary", Date: core.NewDate(2025, 3, 1)}
	if _, err := f.ledger.AddTransaction(ctx, salary); err != nil {
		t.Fatal(err)
	}
	sum, _ = f.ledger.Summary(ctx, 2025, 3)
	if sum.Income.Cents != 300000 || sum.Balance != 298800 || sum.Count != 2 {
		t.Fatalf("stale summary after write: %+v", sum)
	}

	other, _ := f.ledger.Summary(ctx, 2025, 4)
	if other.Count != 0 {
		t.Fatalf("April should be empty, got %+v", other)
	}
}

func TestWatchEmitsAfterMutations(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := f.ledger.Watch(ctx, 2025, 5)
	if err != nil {
		t.Fatal(err)
	}

	first := <-updates
	if first.Count != 0 {
		t.Fatalf("expected empty initial summary, got %+v", first)
	}

	if _, err := f.ledger.AddTransaction(ctx, expense("Train", 4500, "Transport", core.NewDate(2025, 5, 9))); err != nil {
		t.Fatal(err)
	}

	select {
	case sum := <-updates:
		if sum.Expense.Cents != 4500 {
			t.Fatalf("expected recomputed expense 4500, got %+v", sum)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no summary emitted after mutation")
	}

	cancel()
	for range updates {
	}
}

func TestPublisherFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	f := newFixture(t, WithPublisher(pub))
	ctx := context.Background()

	added, err := f.ledger.AddTransaction(ctx, expense("Book", 1999, "Leisure", core.NewDate(2025, 6, 1)))
	if err != nil {
		t.Fatalf("write should succeed despite publisher error: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].ID != added.ID {
		t.Fatalf("expected one published event for %s, got %+v", added.ID, pub.events)
	}
}

func TestReplaceTransactionsRefreshesSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.ledger.AddTransaction(ctx, expense("Old", 100, "Misc", core.NewDate(2025, 7, 1)))
	if sum, _ := f.ledger.Summary(ctx, 2025, 7); sum.Count != 1 {
		t.Fatalf("expected 1 transaction, got %d", sum.Count)
	}

	restored := []core.Transaction{
		{ID: "r1", Title: "A", Amount: core.Money{Cents: 10}, Category: "Misc", Date: core.NewDate(2025, 7, 2), IsExpense: true},
		{ID: "r2", Title: "B", Amount: core.Money{Cents: 20}, Category: "Misc", Date: core.NewDate(2025, 7, 3), IsExpense: true},
	}
	if err := f.ledger.ReplaceTransactions(ctx, restored); err != nil {
		t.Fatal(err)
	}
	sum, _ := f.ledger.Summary(ctx, 2025, 7)
	if sum.Count != 2 || sum.Expense.Cents != 30 {
		t.Fatalf("summary not refreshed after replace: %+v", sum)
	}
}

func TestSummaryComputedDuringWriteIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := &interleavingStore{Store: memory.New()}
	ledger := NewLedgerService(store, events.NewBus())
	store.during = func() {
		if _, err := ledger.AddTransaction(ctx, expense("Taxi", 2500, "Travel", core.NewDate(2025, 5, 9))); err != nil {
			t.Errorf("concurrent add: %v", err)
		}
	}

	first, err := ledger.Summary(ctx, 2025, 5)
	if err != nil {
		t.Fatal(err)
	}
	if first.Count != 0 {
		t.Fatalf("expected the in-flight summary to predate the write, got %+v", first)
	}

	second, err := ledger.Summary(ctx, 2025, 5)
	if err != nil {
		t.Fatal(err)
	}
	if second.Count != 1 || second.Expense.Cents != 2500 {
		t.Fatalf("summary computed before the write was cached: %+v", second)
	}
}
