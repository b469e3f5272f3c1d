package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/ports"
)

// EventPublisher forwards committed mutations outside the process.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, e events.Event) error
}

type monthKey struct {
	year, month int
}

// LedgerService owns transaction mutations and the month summaries derived
// from them. Every mutation is written to the store before observers hear
// about it.
type LedgerService struct {
	store     ports.Store
	bus       *events.Bus
	publisher EventPublisher

	// cacheMu orders cache fills against invalidations; generation counts
	// transaction mutations.
	cacheMu    sync.Mutex
	summaries  *cache.LRU[monthKey, core.MonthSummary]
	generation uint64
	group      singleflight.Group

	now func() time.Time
}

type LedgerOption func(*LedgerService)

// WithPublisher forwards ledger events to p on a best-effort basis.
func WithPublisher(p EventPublisher) LedgerOption {
	return func(s *LedgerService) { s.publisher = p }
}

func WithClock(now func() time.Time) LedgerOption {
	return func(s *LedgerService) { s.now = now }
}

func NewLedgerService(store ports.Store, bus *events.Bus, opts ...LedgerOption) *LedgerService {
	if bus == nil {
		bus = events.NewBus()
	}
	s := &LedgerService{
		store:     store,
		bus:       bus,
		summaries: cache.NewLRU[monthKey, core.MonthSummary](24, 10*time.Minute),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SummaryCache exposes the month summary cache so the shell can sweep it.
func (s *LedgerService) SummaryCache() cache.Cleaner {
	return s.summaries
}

func (s *LedgerService) Bus() *events.Bus {
	return s.bus
}

// AddTransaction validates t as user input, assigns an ID when missing and
// stores it.
func (s *LedgerService) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t = normalizeTransaction(t)
	if t.ID == "" {
		t.ID = core.NewID()
	}
	if err := t.ValidateEntry(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.InsertTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.Committed(ctx, events.Event{Kind: events.Created, Entity: events.TransactionEntity, ID: t.ID})
	return t, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	t = normalizeTransaction(t)
	if t.ID == "" {
		return fmt.Errorf("update transaction: %w", core.ErrNotFound)
	}
	if err := t.ValidateEntry(); err != nil {
		return err
	}
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	s.Committed(ctx, events.Event{Kind: events.Updated, Entity: events.TransactionEntity, ID: t.ID})
	return nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.Committed(ctx, events.Event{Kind: events.Deleted, Entity: events.TransactionEntity, ID: id})
	return nil
}

// GetTransaction reports found=false when no transaction has that id.
func (s *LedgerService) GetTransaction(ctx context.Context, id string) (core.Transaction, bool, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.Transaction{}, false, nil
	}
	if err != nil {
		return core.Transaction{}, false, err
	}
	return t, true, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

// ListMonth returns the transactions dated in the given calendar month.
func (s *LedgerService) ListMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	from, to := core.MonthBounds(year, month)
	return s.store.ListTransactionsBetween(ctx, from, to)
}

// Recent returns the n newest transactions.
func (s *LedgerService) Recent(ctx context.Context, n int) ([]core.Transaction, error) {
	txns, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return core.Recent(txns, n), nil
}

// ReplaceTransactions swaps the whole transaction set in one store call.
func (s *LedgerService) ReplaceTransactions(ctx context.Context, txns []core.Transaction) error {
	if err := s.store.ReplaceTransactions(ctx, txns); err != nil {
		return err
	}
	s.Committed(ctx, events.Event{Kind: events.Replaced, Entity: events.TransactionEntity})
	return nil
}

// Summary returns the month view, computing it at most once per month
// between mutations.
func (s *LedgerService) Summary(ctx context.Context, year, month int) (core.MonthSummary, error) {
	key := monthKey{year, month}
	if sum, ok := s.summaries.Get(key); ok {
		return sum, nil
	}

	s.cacheMu.Lock()
	gen := s.generation
	s.cacheMu.Unlock()

	v, err, _ := s.group.Do(fmt.Sprintf("%d-%d-%02d", gen, year, month), func() (interface{}, error) {
		txns, err := s.ListMonth(ctx, year, month)
		if err != nil {
			return core.MonthSummary{}, fmt.Errorf("summarize %d-%02d: %w", year, month, err)
		}
		sum := core.Summarize(txns, year, month)

		// A mutation that landed while computing makes this result stale.
		s.cacheMu.Lock()
		if s.generation == gen {
			s.summaries.Set(key, sum)
		}
		s.cacheMu.Unlock()
		return sum, nil
	})
	if err != nil {
		return core.MonthSummary{}, err
	}
	return v.(core.MonthSummary), nil
}

// CurrentSummary is Summary for the month containing now.
func (s *LedgerService) CurrentSummary(ctx context.Context) (core.MonthSummary, error) {
	today := core.Today(s.now())
	return s.Summary(ctx, today.Year(), today.Month())
}

// ProjectedBalance is the all-time balance minus pending upcoming payments.
func (s *LedgerService) ProjectedBalance(ctx context.Context) (int64, error) {
	txns, err := s.store.ListTransactions(ctx)
	if err != nil {
		return 0, err
	}
	upcoming, err := s.store.ListUpcoming(ctx)
	if err != nil {
		return 0, err
	}
	return core.ProjectedBalance(txns, upcoming), nil
}

// Watch emits the month summary now and again after every transaction
// mutation, until ctx is cancelled. Bursts of mutations may be coalesced
// into a single emission.
func (s *LedgerService) Watch(ctx context.Context, year, month int) (<-chan core.MonthSummary, error) {
	evs, cancel := s.bus.Subscribe(32)

	first, err := s.Summary(ctx, year, month)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan core.MonthSummary, 1)
	out <- first

	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-evs:
				if !ok {
					return
				}
				if e.Entity != events.TransactionEntity {
					continue
				}
				drain(evs)

				sum, err := s.Summary(ctx, year, month)
				if err != nil {
					slog.ErrorContext(ctx, "Failed to recompute month summary",
						"year", year,
						"month", month,
						"error", err)
					continue
				}
				select {
				case out <- sum:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func drain(ch <-chan events.Event) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// Committed must be called after a mutation has been durably written. It
// invalidates derived views, then notifies local observers and the external
// publisher.
func (s *LedgerService) Committed(ctx context.Context, e events.Event) {
	if e.At.IsZero() {
		e.At = s.now()
	}
	if e.Entity == events.TransactionEntity {
		s.cacheMu.Lock()
		s.generation++
		s.summaries.Purge()
		s.cacheMu.Unlock()
	}
	s.bus.Publish(e)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", e.Kind,
			"entity", e.Entity,
			"id", e.ID,
			"error", err)
	}
}

func normalizeTransaction(t core.Transaction) core.Transaction {
	t.Title = strings.TrimSpace(t.Title)
	t.Category = strings.TrimSpace(t.Category)
	t.Notes = strings.TrimSpace(t.Notes)
	return t
}
