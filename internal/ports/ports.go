// Package ports declares the storage contracts the ledger services depend on.
// Implementations return core.ErrNotFound (possibly wrapped) for absent records.
package ports

import (
	"context"

	"fintrack/internal/core"
)

type (
	TransactionStore interface {
		InsertTransaction(ctx context.Context, t core.Transaction) error
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id string) error
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		// ListTransactions returns every transaction, newest first.
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		// ListTransactionsBetween returns transactions with from <= date < to, newest first.
		ListTransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error)
		// ReplaceTransactions atomically swaps the whole transaction set.
		ReplaceTransactions(ctx context.Context, txns []core.Transaction) error
	}

	UpcomingStore interface {
		InsertUpcoming(ctx context.Context, p core.UpcomingPayment) error
		UpdateUpcoming(ctx context.Context, p core.UpcomingPayment) error
		DeleteUpcoming(ctx context.Context, id string) error
		GetUpcoming(ctx context.Context, id string) (core.UpcomingPayment, error)
		// ListUpcoming returns every scheduled payment, earliest due first.
		ListUpcoming(ctx context.Context) ([]core.UpcomingPayment, error)
		// ConvertUpcoming inserts txn, inserts successor when non-nil and deletes
		// the payment originalID as one unit.
		ConvertUpcoming(ctx context.Context, txn core.Transaction, successor *core.UpcomingPayment, originalID string) error
	}

	BudgetStore interface {
		GetBudget(ctx context.Context, year, month int) (core.Budget, error)
		// SaveBudget creates or replaces the budget for b's month.
		SaveBudget(ctx context.Context, b core.Budget) error
	}

	// Store is a full ledger backend.
	Store interface {
		TransactionStore
		UpcomingStore
		BudgetStore
		Close() error
	}
)

type NotificationKind string

const (
	BudgetWarning   NotificationKind = "budget_warning"
	PaymentReminder NotificationKind = "payment_reminder"
)

// Notification is an alert for the user. Delivery and display belong to the
// notifier; callers do not deduplicate.
type Notification struct {
	Kind   NotificationKind
	Title  string
	Body   string
	RefID  string
	Amount core.Money
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
