package log

import (
	"sort"

	"fintrack/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldYear          = "year"
	FieldMonth         = "month"
	FieldTransactionID = "transaction_id"
	FieldUpcomingID    = "upcoming_id"
	FieldTitle         = "title"
	FieldCategory      = "category"
	FieldAmountCents   = "amount_cents"
	FieldIsExpense     = "is_expense"
	FieldDate          = "date"
	FieldDueDate       = "due_date"
	FieldPeriod        = "recurring_period"
	FieldBackupName    = "backup_name"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentLedger   = "ledger"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentCache    = "cache"
	ComponentBackup   = "backup"
	ComponentBackend  = "backend"
	ComponentNotifier = "notifier"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpConvert  = "convert"
	OpRestore  = "restore"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// Fields provides a builder for structured log fields
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithComponent(component string) Fields {
	f[FieldComponent] = component
	return f
}

// WithError adds the error message; a nil error adds nothing.
func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

func (f Fields) WithMonth(year, month int) Fields {
	f[FieldYear] = year
	f[FieldMonth] = month
	return f
}

// WithTransaction adds the transaction's identifying fields.
func (f Fields) WithTransaction(t core.Transaction) Fields {
	f[FieldTransactionID] = t.ID
	f[FieldTitle] = t.Title
	f[FieldAmountCents] = t.Amount.Cents
	f[FieldCategory] = t.Category
	f[FieldIsExpense] = t.IsExpense
	f[FieldDate] = t.Date.String()
	return f
}

// WithPayment adds the upcoming payment's identifying fields.
func (f Fields) WithPayment(p core.UpcomingPayment) Fields {
	f[FieldUpcomingID] = p.ID
	f[FieldTitle] = p.Title
	f[FieldAmountCents] = p.Amount.Cents
	f[FieldDueDate] = p.DueDate.String()
	if p.IsRecurring {
		f[FieldPeriod] = string(p.RecurringPeriod)
	}
	return f
}

func (f Fields) With(key string, value any) Fields {
	f[key] = value
	return f
}

// ToSlice converts Fields to alternating key/value args for slog, sorted by key.
func (f Fields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
