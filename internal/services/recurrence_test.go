package services

import (
	"errors"
	"testing"

	"fintrack/internal/core"
)

func TestAdvance(t *testing.T) {
	tests := []struct {
		name   string
		due    core.Date
		period core.RecurringPeriod
		want   core.Date
	}{
		{"daily falls back to monthly", core.NewDate(2024, 1, 10), core.Daily, core.NewDate(2024, 2, 10)},
		{"weekly", core.NewDate(2024, 2, 26), core.Weekly, core.NewDate(2024, 3, 4)},
		{"monthly clamps to leap february", core.NewDate(2024, 1, 31), core.Monthly, core.NewDate(2024, 2, 29)},
		{"monthly clamps to february", core.NewDate(2025, 1, 31), core.Monthly, core.NewDate(2025, 2, 28)},
		{"monthly keeps day", core.NewDate(2025, 3, 15), core.Monthly, core.NewDate(2025, 4, 15)},
		{"monthly across year end", core.NewDate(2025, 12, 31), core.Monthly, core.NewDate(2026, 1, 31)},
		{"yearly", core.NewDate(2025, 6, 1), core.Yearly, core.NewDate(2026, 6, 1)},
		{"yearly from leap day", core.NewDate(2024, 2, 29), core.Yearly, core.NewDate(2025, 2, 28)},
		{"unknown defaults to monthly", core.NewDate(2025, 1, 31), core.RecurringPeriod("fortnightly"), core.NewDate(2025, 2, 28)},
		{"empty defaults to monthly", core.NewDate(2025, 5, 10), "", core.NewDate(2025, 6, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Advance(tt.due, tt.period)
			if got.Compare(tt.want) != 0 {
				t.Errorf("Advance(%s, %q) = %s, want %s", tt.due, tt.period, got, tt.want)
			}
		})
	}
}

func TestGetRecurrence(t *testing.T) {
	if _, err := GetRecurrence(core.Monthly); err != nil {
		t.Fatalf("monthly should be registered: %v", err)
	}
	for _, p := range []core.RecurringPeriod{"hourly", core.Daily} {
		if _, err := GetRecurrence(p); !errors.Is(err, core.ErrInvalidPeriod) {
			t.Fatalf("GetRecurrence(%q): expected ErrInvalidPeriod, got %v", p, err)
		}
	}
}

type quarterly struct{}

func (quarterly) Next(due core.Date) core.Date { return due.AddMonthsClamped(3) }

func TestRegisterRecurrence(t *testing.T) {
	const period core.RecurringPeriod = "quarterly"
	RegisterRecurrence(period, quarterly{})

	got := Advance(core.NewDate(2025, 11, 30), period)
	if want := core.NewDate(2026, 2, 28); got.Compare(want) != 0 {
		t.Fatalf("Advance quarterly = %s, want %s", got, want)
	}
}
