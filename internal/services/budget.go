package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/ports"
)

// BudgetService applies the monthly budget policy. It keeps no state
// between checks: every Check over the threshold notifies again.
type BudgetService struct {
	store    ports.Store
	ledger   *LedgerService
	notifier ports.Notifier
}

func NewBudgetService(store ports.Store, ledger *LedgerService, notifier ports.Notifier) *BudgetService {
	return &BudgetService{
		store:    store,
		ledger:   ledger,
		notifier: notifier,
	}
}

// CurrentBudget reports found=false when no budget is set for the month.
func (s *BudgetService) CurrentBudget(ctx context.Context, year, month int) (core.Budget, bool, error) {
	b, err := s.store.GetBudget(ctx, year, month)
	if errors.Is(err, core.ErrNotFound) {
		return core.Budget{}, false, nil
	}
	if err != nil {
		return core.Budget{}, false, err
	}
	return b, true, nil
}

// SetBudget creates or updates the budget for b's month. A zero threshold
// takes the default.
func (s *BudgetService) SetBudget(ctx context.Context, b core.Budget) error {
	if b.WarningThreshold == 0 {
		b.WarningThreshold = core.DefaultWarningThreshold
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveBudget(ctx, b); err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	s.ledger.Committed(ctx, events.Event{
		Kind:   events.Updated,
		Entity: events.BudgetEntity,
		ID:     fmt.Sprintf("%d-%02d", b.Year, b.Month),
	})
	return nil
}

// Check compares the month's expenses with its budget and sends one
// warning when spending reached the threshold. found is false when the
// month has no budget.
func (s *BudgetService) Check(ctx context.Context, year, month int) (core.BudgetStatus, bool, error) {
	b, found, err := s.CurrentBudget(ctx, year, month)
	if err != nil || !found {
		return core.BudgetStatus{}, false, err
	}

	summary, err := s.ledger.Summary(ctx, year, month)
	if err != nil {
		return core.BudgetStatus{}, true, err
	}

	status := core.EvaluateBudget(b, summary.Expense)
	slog.InfoContext(ctx, "Budget checked",
		"year", year,
		"month", month,
		"budget_cents", b.Amount.Cents,
		"spent_cents", status.Spent.Cents,
		"fraction", status.Fraction,
		"over_warning", status.OverWarning)

	if status.OverWarning && s.notifier != nil {
		n := ports.Notification{
			Kind:   ports.BudgetWarning,
			Title:  "Budget warning",
			Body:   budgetMessage(status),
			RefID:  fmt.Sprintf("%d-%02d", year, month),
			Amount: status.Spent,
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			slog.ErrorContext(ctx, "Failed to send budget warning", "error", err)
		}
	}
	return status, true, nil
}

func budgetMessage(st core.BudgetStatus) string {
	pct := int(st.Fraction*100 + 0.5)
	if st.OverBudget {
		return fmt.Sprintf("You have spent %d%% of your monthly budget and exceeded it by %s", pct, core.Money{Cents: -st.RemainingCents})
	}
	return fmt.Sprintf("You have spent %d%% of your monthly budget", pct)
}
