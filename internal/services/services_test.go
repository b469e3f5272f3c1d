package services

import (
	"context"
	"sync"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/ports"
	"fintrack/internal/storage/memory"
)

type recordingNotifier struct {
	mu    sync.Mutex
	notes []ports.Notification
	err   error
}

func (r *recordingNotifier) Notify(_ context.Context, n ports.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.notes = append(r.notes, n)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recordingPublisher) PublishLedgerEvent(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

type fixture struct {
	store    *memory.Store
	ledger   *LedgerService
	payments *PaymentProcessor
	budgets  *BudgetService
	notifier *recordingNotifier
}

func newFixture(t *testing.T, opts ...LedgerOption) fixture {
	t.Helper()
	store := memory.New()
	notifier := &recordingNotifier{}
	ledger := NewLedgerService(store, events.NewBus(), opts...)
	return fixture{
		store:    store,
		ledger:   ledger,
		payments: NewPaymentProcessor(store, ledger, notifier),
		budgets:  NewBudgetService(store, ledger, notifier),
		notifier: notifier,
	}
}

func expense(title string, cents int64, category string, date core.Date) core.Transaction {
	return core.Transaction{Title: title, Amount: core.Money{Cents: cents}, Category: category, Date: date, IsExpense: true}
}
