package core

import "time"

// PaymentState is the lifecycle state of an upcoming payment.
type PaymentState int

const (
	// Pending payments are due after today.
	Pending PaymentState = iota
	// Due payments are due today or earlier and should become transactions.
	Due
)

func (s PaymentState) String() string {
	if s == Due {
		return "due"
	}
	return "pending"
}

// State compares the due date with now at day granularity.
func (p UpcomingPayment) State(now time.Time) PaymentState {
	if p.DueDate.Compare(DateOf(now)) <= 0 {
		return Due
	}
	return Pending
}

func (p UpcomingPayment) IsDue(now time.Time) bool {
	return p.State(now) == Due
}

// DuePayments returns the payments that are due at now.
func DuePayments(payments []UpcomingPayment, now time.Time) []UpcomingPayment {
	var out []UpcomingPayment
	for _, p := range payments {
		if p.IsDue(now) {
			out = append(out, p)
		}
	}
	return out
}

// DueWithin returns pending payments falling due in the next days days.
func DueWithin(payments []UpcomingPayment, now time.Time, days int) []UpcomingPayment {
	today := DateOf(now)
	limit := today.AddDays(days)
	var out []UpcomingPayment
	for _, p := range payments {
		if p.DueDate.Compare(today) > 0 && p.DueDate.Compare(limit) <= 0 {
			out = append(out, p)
		}
	}
	return out
}
