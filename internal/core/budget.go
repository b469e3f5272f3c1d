package core

// BudgetStatus compares a month's spending against its budget.
type BudgetStatus struct {
	Budget         Budget
	Spent          Money
	Fraction       float64
	OverWarning    bool
	OverBudget     bool
	RemainingCents int64
}

// SpentFraction returns totalExpense / budget amount, or 0 when the budget
// amount is zero.
func SpentFraction(totalExpense Money, b Budget) float64 {
	if b.Amount.Cents == 0 {
		return 0
	}
	f, _ := totalExpense.Decimal().Div(b.Amount.Decimal()).Float64()
	return f
}

// IsOverWarningThreshold reports whether spending reached the budget's
// warning fraction.
func IsOverWarningThreshold(fraction float64, b Budget) bool {
	return fraction >= b.WarningThreshold
}

// EvaluateBudget computes the status of b given the expense transactions of
// its month.
func EvaluateBudget(b Budget, totalExpense Money) BudgetStatus {
	fraction := SpentFraction(totalExpense, b)
	return BudgetStatus{
		Budget:         b,
		Spent:          totalExpense,
		Fraction:       fraction,
		OverWarning:    b.Amount.Cents > 0 && IsOverWarningThreshold(fraction, b),
		OverBudget:     b.Amount.Cents > 0 && totalExpense.Cents > b.Amount.Cents,
		RemainingCents: b.Amount.Cents - totalExpense.Cents,
	}
}
