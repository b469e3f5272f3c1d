package core

import (
	"sort"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name    string
	Amount  Money
	Percent float64
}

// MonthSummary is the derived dashboard view for one calendar month.
type MonthSummary struct {
	Year       int
	Month      int // 1-12
	Income     Money
	Expense    Money
	Balance    int64 // signed cents
	Count      int
	ByCategory []CategoryAmount
}

// TotalBalance sums incomes as positive and expenses as negative cents.
func TotalBalance(txns []Transaction) int64 {
	var total int64
	for _, t := range txns {
		total += t.SignedCents()
	}
	return total
}

func TotalIncome(txns []Transaction) Money {
	var total Money
	for _, t := range txns {
		if !t.IsExpense {
			total = total.Add(t.Amount)
		}
	}
	return total
}

func TotalExpense(txns []Transaction) Money {
	var total Money
	for _, t := range txns {
		if t.IsExpense {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// CategoryBreakdown maps each expense category to its summed amount. Income
// entries are ignored.
func CategoryBreakdown(txns []Transaction) map[string]Money {
	out := make(map[string]Money)
	for _, t := range txns {
		if !t.IsExpense {
			continue
		}
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// CategoryPercentage returns categoryTotal as a percentage of totalExpense,
// or 0 when there is no expense at all.
func CategoryPercentage(categoryTotal, totalExpense Money) float64 {
	if totalExpense.Cents == 0 {
		return 0
	}
	pct, _ := categoryTotal.Decimal().Div(totalExpense.Decimal()).Shift(2).Float64()
	return pct
}

// SortedBreakdown returns the category breakdown ordered by amount descending,
// ties broken by name, with each row's share of the total expense filled in.
func SortedBreakdown(txns []Transaction) []CategoryAmount {
	breakdown := CategoryBreakdown(txns)
	var total Money
	for _, m := range breakdown {
		total = total.Add(m)
	}
	rows := make([]CategoryAmount, 0, len(breakdown))
	for name, amount := range breakdown {
		rows = append(rows, CategoryAmount{
			Name:    name,
			Amount:  amount,
			Percent: CategoryPercentage(amount, total),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Amount.Cents != rows[j].Amount.Cents {
			return rows[i].Amount.Cents > rows[j].Amount.Cents
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// FilterMonth keeps the transactions dated in the given calendar month.
func FilterMonth(txns []Transaction, year, month int) []Transaction {
	out := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		if t.Date.InMonth(year, month) {
			out = append(out, t)
		}
	}
	return out
}

// FilterRange keeps transactions with from <= date < to.
func FilterRange(txns []Transaction, from, to Date) []Transaction {
	out := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		if t.Date.Compare(from) >= 0 && t.Date.Compare(to) < 0 {
			out = append(out, t)
		}
	}
	return out
}

func FilterCategory(txns []Transaction, category string) []Transaction {
	out := make([]Transaction, 0)
	for _, t := range txns {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// Recent returns up to n transactions, newest first.
func Recent(txns []Transaction, n int) []Transaction {
	sorted := make([]Transaction, len(txns))
	copy(sorted, txns)
	SortByDateDesc(sorted)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// SortByDateDesc orders transactions newest first, keeping input order for
// equal dates.
func SortByDateDesc(txns []Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.Compare(txns[j].Date) > 0
	})
}

// PendingTotal sums the amounts of upcoming payments.
func PendingTotal(upcoming []UpcomingPayment) Money {
	var total Money
	for _, p := range upcoming {
		total = total.Add(p.Amount)
	}
	return total
}

// ProjectedBalance is the ledger balance minus everything still scheduled to be paid.
func ProjectedBalance(txns []Transaction, upcoming []UpcomingPayment) int64 {
	return TotalBalance(txns) - PendingTotal(upcoming).Cents
}

// Summarize builds the month view from the full transaction list.
func Summarize(txns []Transaction, year, month int) MonthSummary {
	inMonth := FilterMonth(txns, year, month)
	return MonthSummary{
		Year:       year,
		Month:      month,
		Income:     TotalIncome(inMonth),
		Expense:    TotalExpense(inMonth),
		Balance:    TotalBalance(inMonth),
		Count:      len(inMonth),
		ByCategory: SortedBreakdown(inMonth),
	}
}
