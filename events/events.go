package events

import (
	"context"
	"sync"

	"matchbook/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange EventType = "balance_change"
	EventTypeUserCreated   EventType = "user_created"
	EventTypeBetPlaced     EventType = "bet_placed"
	EventTypeBetCancelled  EventType = "bet_cancelled"
	EventTypeMatchSettled  EventType = "match_settled"
	EventTypeScrimRecorded EventType = "scrim_recorded"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64
	OldBalance      int64
	NewBalance      int64
	TransactionType models.TransactionType
	ChangeAmount    int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a new user creation
type UserCreatedEvent struct {
	UserID         int64
	Username       string
	InitialBalance int64
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// BetPlacedEvent represents a bet that was placed
type BetPlacedEvent struct {
	BetID   int64
	UserID  int64
	MatchID int64
	Side    string
	Amount  int64
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// BetCancelledEvent represents a bet refunded inside its cancellation window
type BetCancelledEvent struct {
	BetID    int64
	UserID   int64
	MatchID  int64
	Refunded int64
}

func (e BetCancelledEvent) Type() EventType {
	return EventTypeBetCancelled
}

// MatchSettledEvent represents a match whose wagers were paid out
type MatchSettledEvent struct {
	MatchID     int64
	WinningSide string
	TotalPool   int64
	TotalPaid   int64
	WinnerCount int
}

func (e MatchSettledEvent) Type() EventType {
	return EventTypeMatchSettled
}

// ScrimRecordedEvent represents a scrim result applied to player ratings
type ScrimRecordedEvent struct {
	ScrimID     int64
	WinningTeam models.TeamNumber
	PlayerCount int
}

func (e ScrimRecordedEvent) Type() EventType {
	return EventTypeScrimRecorded
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on main event bus")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus to main event bus")

	// Use background context for event emission so handlers outlive the
	// transaction context.
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
