package events

import (
	"sync"
	"time"
)

// Reservation lifecycle event types.
const (
	TypeReservationCreated   = "reservation.created"
	TypeReservationConflict  = "reservation.conflict"
	TypeReservationCancelled = "reservation.cancelled"
)

// Event represents a lightweight domain event emitted by the booking
// widget or the admin dashboard.
type Event struct {
	Type          string
	BusinessID    string
	Date          string // YYYY-MM-DD
	Time          string // HH:mm
	ReservationID string
	StaffID       string
	CreatedAt     time.Time
}

// Handler reacts to an event.
type Handler func(event Event) error

// Bus provides in-process pub/sub for events.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}
