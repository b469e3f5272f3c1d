package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/log"
	"fintrack/internal/ports"
)

// maxCatchUpRounds bounds how many successive periods a single sweep will
// convert for one payment chain, e.g. a weekly payment left unprocessed for
// years.
const maxCatchUpRounds = 366

// ProcessResult summarizes one due-payment sweep.
type ProcessResult struct {
	Converted int
	Failed    int
	Rounds    int
}

// PaymentProcessor manages upcoming payments and turns due ones into
// expense transactions.
type PaymentProcessor struct {
	store    ports.Store
	ledger   *LedgerService
	notifier ports.Notifier
}

func NewPaymentProcessor(store ports.Store, ledger *LedgerService, notifier ports.Notifier) *PaymentProcessor {
	return &PaymentProcessor{
		store:    store,
		ledger:   ledger,
		notifier: notifier,
	}
}

// PlanConversion builds the expense transaction for p and, when p recurs,
// the successor payment due one period later. It does not touch storage.
func PlanConversion(p core.UpcomingPayment) (core.Transaction, *core.UpcomingPayment) {
	notes := p.Notes
	if p.IsRecurring {
		notes = "Recurring payment: " + p.RecurringPeriod.String()
		if extra := strings.TrimSpace(p.Notes); extra != "" {
			notes += "; " + extra
		}
	}

	txn := core.Transaction{
		ID:        core.NewID(),
		Title:     p.Title,
		Amount:    p.Amount,
		Category:  p.Category,
		Date:      p.DueDate,
		IsExpense: true,
		Notes:     notes,
	}

	if !p.IsRecurring {
		return txn, nil
	}
	next := p
	next.ID = core.NewID()
	next.DueDate = Advance(p.DueDate, p.RecurringPeriod)
	return txn, &next
}

// AddUpcoming validates and stores a new scheduled payment.
func (s *PaymentProcessor) AddUpcoming(ctx context.Context, p core.UpcomingPayment) (core.UpcomingPayment, error) {
	p, err := normalizeUpcoming(p)
	if err != nil {
		return core.UpcomingPayment{}, err
	}
	if p.ID == "" {
		p.ID = core.NewID()
	}
	if err := p.Validate(); err != nil {
		return core.UpcomingPayment{}, err
	}
	if err := s.store.InsertUpcoming(ctx, p); err != nil {
		return core.UpcomingPayment{}, fmt.Errorf("save upcoming payment: %w", err)
	}
	s.ledger.Committed(ctx, events.Event{Kind: events.Created, Entity: events.UpcomingEntity, ID: p.ID})
	return p, nil
}

func (s *PaymentProcessor) UpdateUpcoming(ctx context.Context, p core.UpcomingPayment) error {
	p, err := normalizeUpcoming(p)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateUpcoming(ctx, p); err != nil {
		return fmt.Errorf("update upcoming payment: %w", err)
	}
	s.ledger.Committed(ctx, events.Event{Kind: events.Updated, Entity: events.UpcomingEntity, ID: p.ID})
	return nil
}

func (s *PaymentProcessor) DeleteUpcoming(ctx context.Context, id string) error {
	if err := s.store.DeleteUpcoming(ctx, id); err != nil {
		return fmt.Errorf("delete upcoming payment: %w", err)
	}
	s.ledger.Committed(ctx, events.Event{Kind: events.Deleted, Entity: events.UpcomingEntity, ID: id})
	return nil
}

// GetUpcoming reports found=false when no payment has that id.
func (s *PaymentProcessor) GetUpcoming(ctx context.Context, id string) (core.UpcomingPayment, bool, error) {
	p, err := s.store.GetUpcoming(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.UpcomingPayment{}, false, nil
	}
	if err != nil {
		return core.UpcomingPayment{}, false, err
	}
	return p, true, nil
}

// ListUpcoming returns all scheduled payments, earliest due first.
func (s *PaymentProcessor) ListUpcoming(ctx context.Context) ([]core.UpcomingPayment, error) {
	return s.store.ListUpcoming(ctx)
}

// Convert records the payment id as an expense now, regardless of its due
// date, and schedules its successor when it recurs.
func (s *PaymentProcessor) Convert(ctx context.Context, id string) (core.Transaction, error) {
	p, err := s.store.GetUpcoming(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("convert upcoming payment: %w", err)
	}
	return s.convert(ctx, p)
}

func (s *PaymentProcessor) convert(ctx context.Context, p core.UpcomingPayment) (core.Transaction, error) {
	txn, next := PlanConversion(p)
	if err := s.store.ConvertUpcoming(ctx, txn, next, p.ID); err != nil {
		return core.Transaction{}, err
	}

	s.ledger.Committed(ctx, events.Event{Kind: events.Created, Entity: events.TransactionEntity, ID: txn.ID})
	s.ledger.Committed(ctx, events.Event{Kind: events.Deleted, Entity: events.UpcomingEntity, ID: p.ID})
	if next != nil {
		s.ledger.Committed(ctx, events.Event{Kind: events.Created, Entity: events.UpcomingEntity, ID: next.ID})
	}

	fields := log.NewFields().
		WithOperation(log.OpConvert).
		WithPayment(p).
		With(log.FieldTransactionID, txn.ID)
	if next != nil {
		fields.With("next_id", next.ID).With("next_due_date", next.DueDate.String())
	}
	slog.InfoContext(ctx, "Converted upcoming payment to expense", fields.ToSlice()...)
	return txn, nil
}

// ProcessDue converts every payment due at now. Successors that are
// themselves already due are converted in further rounds, so a chain that
// fell behind is caught up in one sweep. A payment that fails to convert is
// logged and skipped for the rest of the sweep.
func (s *PaymentProcessor) ProcessDue(ctx context.Context, now time.Time) (ProcessResult, error) {
	var res ProcessResult
	failed := map[string]bool{}

	for res.Rounds < maxCatchUpRounds {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		upcoming, err := s.store.ListUpcoming(ctx)
		if err != nil {
			return res, fmt.Errorf("list upcoming payments: %w", err)
		}

		var due []core.UpcomingPayment
		for _, p := range core.DuePayments(upcoming, now) {
			if !failed[p.ID] {
				due = append(due, p)
			}
		}
		if len(due) == 0 {
			break
		}
		res.Rounds++

		for _, p := range due {
			if _, err := s.convert(ctx, p); err != nil {
				failed[p.ID] = true
				res.Failed++
				slog.ErrorContext(ctx, "Failed to convert due payment",
					"upcoming_id", p.ID,
					"title", p.Title,
					"error", err)
				continue
			}
			res.Converted++
		}
	}

	if res.Rounds == maxCatchUpRounds {
		slog.WarnContext(ctx, "Due payment catch-up stopped at round limit", "rounds", res.Rounds)
	}

	slog.InfoContext(ctx, "Due payment processing complete",
		"converted", res.Converted,
		"failed", res.Failed,
		"rounds", res.Rounds,
		"processing_date", core.Today(now).String())
	return res, nil
}

// SendReminders notifies about every pending payment falling due within the
// next days days. It returns the number of reminders delivered.
func (s *PaymentProcessor) SendReminders(ctx context.Context, now time.Time, days int) (int, error) {
	if s.notifier == nil || days <= 0 {
		return 0, nil
	}

	upcoming, err := s.store.ListUpcoming(ctx)
	if err != nil {
		return 0, fmt.Errorf("list upcoming payments: %w", err)
	}

	sent := 0
	for _, p := range core.DueWithin(upcoming, now, days) {
		n := ports.Notification{
			Kind:   ports.PaymentReminder,
			Title:  "Upcoming payment: " + p.Title,
			Body:   fmt.Sprintf("%s of %s is due on %s", p.Title, p.Amount, p.DueDate),
			RefID:  p.ID,
			Amount: p.Amount,
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			slog.ErrorContext(ctx, "Failed to send payment reminder",
				"upcoming_id", p.ID,
				"error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func normalizeUpcoming(p core.UpcomingPayment) (core.UpcomingPayment, error) {
	p.Title = strings.TrimSpace(p.Title)
	p.Category = strings.TrimSpace(p.Category)
	p.Notes = strings.TrimSpace(p.Notes)

	if !p.IsRecurring {
		p.RecurringPeriod = ""
		return p, nil
	}
	period, err := core.ParseRecurringPeriod(string(p.RecurringPeriod))
	if err != nil {
		return p, core.ValidationErrors{{Field: "recurring_period", Err: core.ErrInvalidPeriod}}
	}
	p.RecurringPeriod = period
	return p, nil
}
