package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query can run inside
// or outside a transaction.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const transactionColumns = `id, title, amount_cents, category, date, is_expense, notes`

const insertTransaction = `INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTransaction(ctx context.Context, r TransactionRow) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		r.ID, r.Title, r.AmountCents, r.Category, r.Date, r.IsExpense, r.Notes)
	return err
}

const updateTransaction = `UPDATE transactions
SET title = ?, amount_cents = ?, category = ?, date = ?, is_expense = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, r TransactionRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		r.Title, r.AmountCents, r.Category, r.Date, r.IsExpense, r.Notes, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteAllTransactions = `DELETE FROM transactions`

func (q *Queries) DeleteAllTransactions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllTransactions)
	return err
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (TransactionRow, error) {
	var r TransactionRow
	err := q.db.QueryRowContext(ctx, getTransaction, id).Scan(
		&r.ID, &r.Title, &r.AmountCents, &r.Category, &r.Date, &r.IsExpense, &r.Notes)
	return r, err
}

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions
ORDER BY date DESC, created_at DESC`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactions)
}

// Dates are stored as YYYY-MM-DD so lexical comparison is chronological.
const listTransactionsBetween = `SELECT ` + transactionColumns + ` FROM transactions
WHERE date >= ? AND date < ?
ORDER BY date DESC, created_at DESC`

func (q *Queries) ListTransactionsBetween(ctx context.Context, from, to string) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactionsBetween, from, to)
}

const listTransactionsByCategory = `SELECT ` + transactionColumns + ` FROM transactions
WHERE category = ?
ORDER BY date DESC, created_at DESC`

func (q *Queries) ListTransactionsByCategory(ctx context.Context, category string) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactionsByCategory, category)
}

func (q *Queries) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TransactionRow
	for rows.Next() {
		var r TransactionRow
		if err := rows.Scan(&r.ID, &r.Title, &r.AmountCents, &r.Category, &r.Date, &r.IsExpense, &r.Notes); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upcomingColumns = `id, title, amount_cents, due_date, category, is_recurring, recurring_period, notes`

const insertUpcoming = `INSERT INTO upcoming_payments (` + upcomingColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertUpcoming(ctx context.Context, r UpcomingPaymentRow) error {
	_, err := q.db.ExecContext(ctx, insertUpcoming,
		r.ID, r.Title, r.AmountCents, r.DueDate, r.Category, r.IsRecurring, r.RecurringPeriod, r.Notes)
	return err
}

const updateUpcoming = `UPDATE upcoming_payments
SET title = ?, amount_cents = ?, due_date = ?, category = ?, is_recurring = ?, recurring_period = ?, notes = ?
WHERE id = ?`

func (q *Queries) UpdateUpcoming(ctx context.Context, r UpcomingPaymentRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUpcoming,
		r.Title, r.AmountCents, r.DueDate, r.Category, r.IsRecurring, r.RecurringPeriod, r.Notes, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteUpcoming = `DELETE FROM upcoming_payments WHERE id = ?`

func (q *Queries) DeleteUpcoming(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteUpcoming, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getUpcoming = `SELECT ` + upcomingColumns + ` FROM upcoming_payments WHERE id = ?`

func (q *Queries) GetUpcoming(ctx context.Context, id string) (UpcomingPaymentRow, error) {
	var r UpcomingPaymentRow
	err := q.db.QueryRowContext(ctx, getUpcoming, id).Scan(
		&r.ID, &r.Title, &r.AmountCents, &r.DueDate, &r.Category, &r.IsRecurring, &r.RecurringPeriod, &r.Notes)
	return r, err
}

const listUpcoming = `SELECT ` + upcomingColumns + ` FROM upcoming_payments
ORDER BY due_date ASC, created_at ASC`

func (q *Queries) ListUpcoming(ctx context.Context) ([]UpcomingPaymentRow, error) {
	rows, err := q.db.QueryContext(ctx, listUpcoming)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []UpcomingPaymentRow
	for rows.Next() {
		var r UpcomingPaymentRow
		if err := rows.Scan(&r.ID, &r.Title, &r.AmountCents, &r.DueDate, &r.Category, &r.IsRecurring, &r.RecurringPeriod, &r.Notes); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getBudget = `SELECT year, month, amount_cents, warning_threshold FROM budgets
WHERE year = ? AND month = ?`

func (q *Queries) GetBudget(ctx context.Context, year, month int64) (BudgetRow, error) {
	var r BudgetRow
	err := q.db.QueryRowContext(ctx, getBudget, year, month).Scan(
		&r.Year, &r.Month, &r.AmountCents, &r.WarningThreshold)
	return r, err
}

const upsertBudget = `INSERT INTO budgets (year, month, amount_cents, warning_threshold)
VALUES (?, ?, ?, ?)
ON CONFLICT (year, month) DO UPDATE SET
    amount_cents = excluded.amount_cents,
    warning_threshold = excluded.warning_threshold,
    updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertBudget(ctx context.Context, r BudgetRow) error {
	_, err := q.db.ExecContext(ctx, upsertBudget, r.Year, r.Month, r.AmountCents, r.WarningThreshold)
	return err
}
