package format

import (
	"strings"
	"testing"

	"fintrack/internal/core"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		code     string
		contains []string
	}{
		{"euro grouping", 123450, "EUR", []string{"€", "1,234.50"}},
		{"lower case code", 500, "usd", []string{"5.00"}},
		{"unknown code", 1999, "EURO", []string{"19.99", "EURO"}},
		{"no code", 1, "", []string{"0.01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Amount(core.Money{Cents: tt.cents}, tt.code)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Amount(%d, %q) = %q, want it to contain %q", tt.cents, tt.code, got, want)
				}
			}
		})
	}
}

func TestSigned(t *testing.T) {
	expense := core.Transaction{Amount: core.Money{Cents: 4200}, IsExpense: true}
	if got := Signed(expense, "EUR"); !strings.HasPrefix(got, "-") {
		t.Errorf("expense rendered as %q", got)
	}
	income := core.Transaction{Amount: core.Money{Cents: 4200}}
	if got := Signed(income, "EUR"); !strings.HasPrefix(got, "+") {
		t.Errorf("income rendered as %q", got)
	}
}
