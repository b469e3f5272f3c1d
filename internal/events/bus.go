// Package events fans ledger mutations out to in-process observers.
package events

import (
	"log/slog"
	"sync"
	"time"
)

type Kind string

const (
	Created  Kind = "created"
	Updated  Kind = "updated"
	Deleted  Kind = "deleted"
	Replaced Kind = "replaced"
)

type Entity string

const (
	TransactionEntity Entity = "transaction"
	UpcomingEntity    Entity = "upcoming_payment"
	BudgetEntity      Entity = "budget"
)

// Event describes a mutation that has already been written to storage.
type Event struct {
	Kind   Kind
	Entity Entity
	ID     string
	At     time.Time
}

// Bus delivers events to subscribers without blocking the publisher. A
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of events and a function that detaches it and
// closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			slog.Warn("Event dropped for slow subscriber",
				"subscriber", id,
				"kind", e.Kind,
				"entity", e.Entity)
		}
	}
}

// Subscribers returns the number of attached subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
