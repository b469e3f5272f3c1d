package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/internal/core"
	"fintrack/internal/ports"

	_ "modernc.org/sqlite"
)

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	// Run migrations before the main connection takes the file.
	if _, err := RunMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer; this also keeps transactions and reads on the same connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn inside a single SQL transaction, rolling back on error.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) error {
	if err := r.queries.InsertTransaction(ctx, transactionRowFrom(t)); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"title", t.Title,
		"amount_cents", t.Amount.Cents,
		"category", t.Category,
		"is_expense", t.IsExpense,
		"date", t.Date.String())
	return nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	n, err := r.queries.UpdateTransaction(ctx, transactionRowFrom(t))
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update transaction %s: %w", t.ID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete transaction %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction by id: %w", err)
	}
	return row.toCore()
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return transactionsFromRows(rows)
}

func (r *SQLiteRepository) ListTransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsBetween(ctx, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions between %s and %s: %w", from, to, err)
	}
	return transactionsFromRows(rows)
}

// ListTransactionsByCategory returns the category's transactions, newest first.
func (r *SQLiteRepository) ListTransactionsByCategory(ctx context.Context, category string) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list transactions for category %s: %w", category, err)
	}
	return transactionsFromRows(rows)
}

// ReplaceTransactions deletes every transaction and inserts txns in one SQL
// transaction; on any failure the previous set is left untouched.
func (r *SQLiteRepository) ReplaceTransactions(ctx context.Context, txns []core.Transaction) error {
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.DeleteAllTransactions(ctx); err != nil {
			return fmt.Errorf("delete all transactions: %w", err)
		}
		for _, t := range txns {
			if err := q.InsertTransaction(ctx, transactionRowFrom(t)); err != nil {
				return fmt.Errorf("insert transaction %s: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transactions replaced", "count", len(txns))
	return nil
}

func (r *SQLiteRepository) InsertUpcoming(ctx context.Context, p core.UpcomingPayment) error {
	if err := r.queries.InsertUpcoming(ctx, upcomingRowFrom(p)); err != nil {
		return fmt.Errorf("insert upcoming payment: %w", err)
	}
	slog.InfoContext(ctx, "Upcoming payment saved to SQLite",
		"id", p.ID,
		"title", p.Title,
		"amount_cents", p.Amount.Cents,
		"due_date", p.DueDate.String(),
		"recurring_period", p.RecurringPeriod)
	return nil
}

func (r *SQLiteRepository) UpdateUpcoming(ctx context.Context, p core.UpcomingPayment) error {
	n, err := r.queries.UpdateUpcoming(ctx, upcomingRowFrom(p))
	if err != nil {
		return fmt.Errorf("update upcoming payment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update upcoming payment %s: %w", p.ID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteUpcoming(ctx context.Context, id string) error {
	n, err := r.queries.DeleteUpcoming(ctx, id)
	if err != nil {
		return fmt.Errorf("delete upcoming payment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete upcoming payment %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) GetUpcoming(ctx context.Context, id string) (core.UpcomingPayment, error) {
	row, err := r.queries.GetUpcoming(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UpcomingPayment{}, fmt.Errorf("get upcoming payment %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.UpcomingPayment{}, fmt.Errorf("get upcoming payment by id: %w", err)
	}
	return row.toCore()
}

func (r *SQLiteRepository) ListUpcoming(ctx context.Context) ([]core.UpcomingPayment, error) {
	rows, err := r.queries.ListUpcoming(ctx)
	if err != nil {
		return nil, fmt.Errorf("list upcoming payments: %w", err)
	}
	out := make([]core.UpcomingPayment, 0, len(rows))
	for _, row := range rows {
		p, err := row.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ConvertUpcoming records a due payment as a transaction, schedules its
// successor and removes the original, all in one SQL transaction.
func (r *SQLiteRepository) ConvertUpcoming(ctx context.Context, txn core.Transaction, successor *core.UpcomingPayment, originalID string) error {
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.InsertTransaction(ctx, transactionRowFrom(txn)); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		if successor != nil {
			if err := q.InsertUpcoming(ctx, upcomingRowFrom(*successor)); err != nil {
				return fmt.Errorf("insert successor: %w", err)
			}
		}
		n, err := q.DeleteUpcoming(ctx, originalID)
		if err != nil {
			return fmt.Errorf("delete original: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("delete original %s: %w", originalID, core.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("convert upcoming payment: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, year, month int) (core.Budget, error) {
	row, err := r.queries.GetBudget(ctx, int64(year), int64(month))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("get budget %d-%02d: %w", year, month, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return row.toCore(), nil
}

func (r *SQLiteRepository) SaveBudget(ctx context.Context, b core.Budget) error {
	err := r.queries.UpsertBudget(ctx, BudgetRow{
		Year:             int64(b.Year),
		Month:            int64(b.Month),
		AmountCents:      b.Amount.Cents,
		WarningThreshold: b.WarningThreshold,
	})
	if err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget saved",
		"year", b.Year,
		"month", b.Month,
		"amount_cents", b.Amount.Cents,
		"warning_threshold", b.WarningThreshold)
	return nil
}

func transactionsFromRows(rows []TransactionRow) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
