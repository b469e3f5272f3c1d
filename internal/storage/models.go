package storage

import (
	"fmt"

	"fintrack/internal/core"
)

// Row types mirror the SQLite tables one to one.

type TransactionRow struct {
	ID          string
	Title       string
	AmountCents int64
	Category    string
	Date        string
	IsExpense   bool
	Notes       string
}

type UpcomingPaymentRow struct {
	ID              string
	Title           string
	AmountCents     int64
	DueDate         string
	Category        string
	IsRecurring     bool
	RecurringPeriod string
	Notes           string
}

type BudgetRow struct {
	Year             int64
	Month            int64
	AmountCents      int64
	WarningThreshold float64
}

func transactionRowFrom(t core.Transaction) TransactionRow {
	return TransactionRow{
		ID:          t.ID,
		Title:       t.Title,
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Date:        t.Date.String(),
		IsExpense:   t.IsExpense,
		Notes:       t.Notes,
	}
}

func (r TransactionRow) toCore() (core.Transaction, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", r.ID, err)
	}
	return core.Transaction{
		ID:        r.ID,
		Title:     r.Title,
		Amount:    core.Money{Cents: r.AmountCents},
		Category:  r.Category,
		Date:      date,
		IsExpense: r.IsExpense,
		Notes:     r.Notes,
	}, nil
}

func upcomingRowFrom(p core.UpcomingPayment) UpcomingPaymentRow {
	return UpcomingPaymentRow{
		ID:              p.ID,
		Title:           p.Title,
		AmountCents:     p.Amount.Cents,
		DueDate:         p.DueDate.String(),
		Category:        p.Category,
		IsRecurring:     p.IsRecurring,
		RecurringPeriod: string(p.RecurringPeriod),
		Notes:           p.Notes,
	}
}

func (r UpcomingPaymentRow) toCore() (core.UpcomingPayment, error) {
	due, err := core.ParseDate(r.DueDate)
	if err != nil {
		return core.UpcomingPayment{}, fmt.Errorf("upcoming payment %s: %w", r.ID, err)
	}
	return core.UpcomingPayment{
		ID:              r.ID,
		Title:           r.Title,
		Amount:          core.Money{Cents: r.AmountCents},
		DueDate:         due,
		Category:        r.Category,
		IsRecurring:     r.IsRecurring,
		RecurringPeriod: core.RecurringPeriod(r.RecurringPeriod),
		Notes:           r.Notes,
	}, nil
}

func (r BudgetRow) toCore() core.Budget {
	return core.Budget{
		Amount:           core.Money{Cents: r.AmountCents},
		WarningThreshold: r.WarningThreshold,
		Month:            int(r.Month),
		Year:             int(r.Year),
	}
}
