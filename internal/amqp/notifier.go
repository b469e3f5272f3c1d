package amqp

import (
	"context"
	"time"

	"fintrack/internal/ports"
)

var _ ports.Notifier = (*Client)(nil)

// Notify publishes n to the notifications queue.
func (c *Client) Notify(ctx context.Context, n ports.Notification) error {
	return c.PublishNotification(ctx, notificationMessage(n, time.Now()))
}

func notificationMessage(n ports.Notification, at time.Time) NotificationMessage {
	return NotificationMessage{
		Type:        NotificationType(n.Kind),
		Title:       n.Title,
		Body:        n.Body,
		RefID:       n.RefID,
		AmountCents: n.Amount.Cents,
		Timestamp:   at,
	}
}
