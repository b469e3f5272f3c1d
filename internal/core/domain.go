package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Daily   RecurringPeriod = "daily"
	Weekly  RecurringPeriod = "weekly"
	Monthly RecurringPeriod = "monthly"
	Yearly  RecurringPeriod = "yearly"
)

// DefaultWarningThreshold is the fraction of a budget at which a warning fires.
const DefaultWarningThreshold = 0.8

const maxTitleLength = 200

type (
	RecurringPeriod string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single recorded income or expense.
	Transaction struct {
		ID        string
		Title     string
		Amount    Money
		Category  string
		Date      Date
		IsExpense bool
		Notes     string
	}

	// UpcomingPayment is a scheduled future expense, optionally recurring.
	UpcomingPayment struct {
		ID              string
		Title           string
		Amount          Money
		DueDate         Date
		Category        string
		IsRecurring     bool
		RecurringPeriod RecurringPeriod
		Notes           string
	}

	// Budget is a monthly spending ceiling. Month is 1-12.
	Budget struct {
		Amount           Money
		WarningThreshold float64
		Month            int
		Year             int
	}
)

var (
	ErrNotFound          = errors.New("not found")
	ErrEmptyTitle        = errors.New("title cannot be blank")
	ErrTitleTooLong      = errors.New("title too long (max 200 characters)")
	ErrEmptyCategory     = errors.New("category cannot be blank")
	ErrNegativeAmount    = errors.New("amount cannot be negative")
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrMissingDate       = errors.New("date is required")
	ErrMissingPeriod     = errors.New("recurring payment requires a period")
	ErrInvalidPeriod     = errors.New("invalid recurring period")
	ErrInvalidThreshold  = errors.New("warning threshold must be in (0, 1]")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidYear       = errors.New("invalid year")
)

// NewID returns a fresh random identifier for ledger records.
func NewID() string {
	return uuid.NewString()
}

// NewTransaction builds a transaction with a generated ID and validates it.
func NewTransaction(title string, amount Money, category string, date Date, isExpense bool, notes string) (Transaction, error) {
	t := Transaction{
		ID:        NewID(),
		Title:     strings.TrimSpace(title),
		Amount:    amount,
		Category:  strings.TrimSpace(category),
		Date:      date,
		IsExpense: isExpense,
		Notes:     notes,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Validate checks the record invariants. A zero amount is allowed here so that
// restored history is accepted as-is; use ValidateEntry for user input.
func (t Transaction) Validate() error {
	var errs ValidationErrors
	errs.checkTitle(t.Title)
	if t.Amount.Cents < 0 {
		errs.add("amount", ErrNegativeAmount)
	}
	if strings.TrimSpace(t.Category) == "" {
		errs.add("category", ErrEmptyCategory)
	}
	if t.Date.IsZero() {
		errs.add("date", ErrMissingDate)
	}
	return errs.orNil()
}

// ValidateEntry applies the stricter rules for records entered by the user.
func (t Transaction) ValidateEntry() error {
	var errs ValidationErrors
	if err := t.Validate(); err != nil {
		errs = append(errs, err.(ValidationErrors)...)
	}
	if t.Amount.Cents == 0 {
		errs.add("amount", ErrNonPositiveAmount)
	}
	return errs.orNil()
}

// SignedCents returns the amount as a balance delta: negative for expenses.
func (t Transaction) SignedCents() int64 {
	if t.IsExpense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}

func (p UpcomingPayment) Validate() error {
	var errs ValidationErrors
	errs.checkTitle(p.Title)
	if p.Amount.Cents <= 0 {
		errs.add("amount", ErrNonPositiveAmount)
	}
	if strings.TrimSpace(p.Category) == "" {
		errs.add("category", ErrEmptyCategory)
	}
	if p.DueDate.IsZero() {
		errs.add("due_date", ErrMissingDate)
	}
	if p.IsRecurring {
		switch {
		case p.RecurringPeriod == "":
			errs.add("recurring_period", ErrMissingPeriod)
		case !p.RecurringPeriod.IsValid():
			errs.add("recurring_period", ErrInvalidPeriod)
		}
	}
	return errs.orNil()
}

func (b Budget) Validate() error {
	var errs ValidationErrors
	if b.Amount.Cents <= 0 {
		errs.add("amount", ErrNonPositiveAmount)
	}
	if b.WarningThreshold <= 0 || b.WarningThreshold > 1 {
		errs.add("warning_threshold", ErrInvalidThreshold)
	}
	if b.Month < 1 || b.Month > 12 {
		errs.add("month", ErrInvalidMonth)
	}
	if b.Year < 1 {
		errs.add("year", ErrInvalidYear)
	}
	return errs.orNil()
}

// NewBudget returns a budget for the given month with the default threshold.
func NewBudget(amount Money, year, month int) Budget {
	return Budget{
		Amount:           amount,
		WarningThreshold: DefaultWarningThreshold,
		Month:            month,
		Year:             year,
	}
}

// ParseRecurringPeriod normalizes user input such as "Monthly".
func ParseRecurringPeriod(s string) (RecurringPeriod, error) {
	p := RecurringPeriod(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return "", nil
	}
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}

func (p RecurringPeriod) IsValid() bool {
	switch p {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

func (p RecurringPeriod) String() string {
	return string(p)
}
