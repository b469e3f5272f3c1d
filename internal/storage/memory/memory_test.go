package memory

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
)

func txn(id, title string, date core.Date) core.Transaction {
	return core.Transaction{
		ID:        id,
		Title:     title,
		Amount:    core.Money{Cents: 1000},
		Category:  "Misc",
		Date:      date,
		IsExpense: true,
	}
}

func TestMemoryStoreTransactions(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.InsertTransaction(ctx, txn("a", "first", core.NewDate(2025, 1, 5))); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertTransaction(ctx, txn("b", "second", core.NewDate(2025, 2, 5))); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertTransaction(ctx, txn("a", "dup", core.NewDate(2025, 2, 5))); err == nil {
		t.Fatal("expected duplicate insert to fail")
	}

	all, _ := s.ListTransactions(ctx)
	if len(all) != 2 || all[0].ID != "b" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	from, to := core.MonthBounds(2025, 1)
	jan, _ := s.ListTransactionsBetween(ctx, from, to)
	if len(jan) != 1 || jan[0].ID != "a" {
		t.Fatalf("unexpected January list %+v", jan)
	}

	if err := s.DeleteTransaction(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateTransaction(ctx, txn("zzz", "x", core.NewDate(2025, 1, 1))); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestMemoryStoreReplaceRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.InsertTransaction(ctx, txn("keep", "keep", core.NewDate(2025, 1, 1)))

	dup := txn("x", "x", core.NewDate(2025, 1, 2))
	if err := s.ReplaceTransactions(ctx, []core.Transaction{dup, dup}); err == nil {
		t.Fatal("expected duplicate ids to be rejected")
	}
	all, _ := s.ListTransactions(ctx)
	if len(all) != 1 || all[0].ID != "keep" {
		t.Fatalf("rejected replace changed the store: %+v", all)
	}

	if err := s.ReplaceTransactions(ctx, []core.Transaction{dup}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	all, _ = s.ListTransactions(ctx)
	if len(all) != 1 || all[0].ID != "x" {
		t.Fatalf("unexpected store after replace: %+v", all)
	}
}

func TestMemoryStoreConvertUpcoming(t *testing.T) {
	ctx := context.Background()
	s := New()

	orig := core.UpcomingPayment{ID: "rent", Title: "Rent", Amount: core.Money{Cents: 100}, DueDate: core.NewDate(2025, 1, 1), Category: "Housing"}
	_ = s.InsertUpcoming(ctx, orig)
	next := orig
	next.ID = "rent-2"
	next.DueDate = core.NewDate(2025, 2, 1)

	if err := s.ConvertUpcoming(ctx, txn("t1", "Rent", orig.DueDate), &next, "rent"); err != nil {
		t.Fatalf("convert: %v", err)
	}
	upcoming, _ := s.ListUpcoming(ctx)
	if len(upcoming) != 1 || upcoming[0].ID != "rent-2" {
		t.Fatalf("unexpected upcoming %+v", upcoming)
	}

	// Missing original: nothing is written.
	if err := s.ConvertUpcoming(ctx, txn("t2", "Rent", orig.DueDate), nil, "rent"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetTransaction(ctx, "t2"); !errors.Is(err, core.ErrNotFound) {
		t.Fatal("failed convert must not insert the transaction")
	}
}

func TestMemoryStoreBudgets(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.GetBudget(ctx, 2025, 4); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	b := core.NewBudget(core.Money{Cents: 50000}, 2025, 4)
	_ = s.SaveBudget(ctx, b)
	got, err := s.GetBudget(ctx, 2025, 4)
	if err != nil || got != b {
		t.Fatalf("got %+v, %v", got, err)
	}
}
