package amqp

import (
	"time"

	"github.com/goccy/go-json"

	"fintrack/internal/events"
)

// LedgerEventMessage announces a committed ledger mutation. Consumers fetch
// the record itself from storage when they need more than the id.
type LedgerEventMessage struct {
	Kind      string    `json:"kind"`
	Entity    string    `json:"entity"`
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(e events.Event) *LedgerEventMessage {
	ts := e.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &LedgerEventMessage{
		Kind:      string(e.Kind),
		Entity:    string(e.Entity),
		ID:        e.ID,
		Timestamp: ts,
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

type NotificationType string

const (
	BudgetWarning   NotificationType = "budget_warning"
	PaymentReminder NotificationType = "payment_reminder"
)

// NotificationMessage is a user-facing alert. Rendering is up to the consumer.
type NotificationMessage struct {
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	RefID       string           `json:"ref_id,omitempty"`
	AmountCents int64            `json:"amount_cents,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
