// Package services holds the ledger's business operations.
//
// This file implements the recurrence strategies used to schedule the
// successor of a converted recurring payment. Each period has its own
// strategy, looked up through a registry.
package services

import (
	"fmt"
	"sync"

	"fintrack/internal/core"
)

// Recurrence computes the next due date for one recurring period.
type Recurrence interface {
	Next(due core.Date) core.Date
}

// WeeklyRecurrence advances by seven days.
type WeeklyRecurrence struct{}

func (WeeklyRecurrence) Next(due core.Date) core.Date { return due.AddDays(7) }

// MonthlyRecurrence advances by one calendar month, keeping the day of month
// when it exists and clamping to the last day otherwise (Jan 31 -> Feb 28/29).
type MonthlyRecurrence struct{}

func (MonthlyRecurrence) Next(due core.Date) core.Date { return due.AddMonthsClamped(1) }

// YearlyRecurrence advances by one calendar year; Feb 29 becomes Feb 28.
type YearlyRecurrence struct{}

func (YearlyRecurrence) Next(due core.Date) core.Date { return due.AddYearsClamped(1) }

var (
	recurrenceMu sync.RWMutex
	recurrences  = map[core.RecurringPeriod]Recurrence{
		core.Weekly:  WeeklyRecurrence{},
		core.Monthly: MonthlyRecurrence{},
		core.Yearly:  YearlyRecurrence{},
	}
)

// GetRecurrence returns the strategy registered for period.
func GetRecurrence(period core.RecurringPeriod) (Recurrence, error) {
	recurrenceMu.RLock()
	defer recurrenceMu.RUnlock()
	r, ok := recurrences[period]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidPeriod, period)
	}
	return r, nil
}

// RegisterRecurrence adds or replaces the strategy for period.
func RegisterRecurrence(period core.RecurringPeriod, r Recurrence) {
	recurrenceMu.Lock()
	defer recurrenceMu.Unlock()
	recurrences[period] = r
}

// Advance returns the due date one period after due. Periods without a
// registered strategy, daily included, advance by one month.
func Advance(due core.Date, period core.RecurringPeriod) core.Date {
	r, err := GetRecurrence(period)
	if err != nil {
		return MonthlyRecurrence{}.Next(due)
	}
	return r.Next(due)
}
