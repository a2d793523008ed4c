// Package events provides the in-process event bus used to surface sync
// lifecycle and data changes to the UI event stream.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	SyncStarted         EventType = "SYNC_STARTED"
	SyncCompleted       EventType = "SYNC_COMPLETED"
	SyncFailed          EventType = "SYNC_FAILED"
	TransactionCreated  EventType = "TRANSACTION_CREATED"
	TransactionUpdated  EventType = "TRANSACTION_UPDATED"
	TransactionDeleted  EventType = "TRANSACTION_DELETED"
	AccountsReconciled  EventType = "ACCOUNTS_RECONCILED"
	AccountFlagsUpdated EventType = "ACCOUNT_FLAGS_UPDATED"
	SnapshotRecorded    EventType = "SNAPSHOT_RECORDED"
	BackupCompleted     EventType = "BACKUP_COMPLETED"
	ErrorOccurred       EventType = "ERROR_OCCURRED"
)

// AllTypes lists every event type the stream endpoint can subscribe to.
var AllTypes = []EventType{
	SyncStarted,
	SyncCompleted,
	SyncFailed,
	TransactionCreated,
	TransactionUpdated,
	TransactionDeleted,
	AccountsReconciled,
	AccountFlagsUpdated,
	SnapshotRecorded,
	BackupCompleted,
	ErrorOccurred,
}

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Module    string                 `json:"module"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Handler receives published events. Handlers must not block; slow consumers
// buffer on their own channels.
type Handler func(*Event)

// Bus handles event emission and subscription
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	log      zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		log:      log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a handler for an event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit publishes an event to all subscribed handlers
func (b *Bus) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := &Event{
		Type:      eventType,
		Module:    module,
		Timestamp: time.Now(),
		Data:      data,
	}

	b.log.Debug().
		Str("event", string(eventType)).
		Str("module", module).
		Msg("Event emitted")

	b.mu.RLock()
	handlers := b.handlers[eventType]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// EmitError emits an ERROR_OCCURRED event and logs it
func (b *Bus) EmitError(module string, err error, data map[string]interface{}) {
	if data == nil {
		data = make(map[string]interface{})
	}
	data["error"] = err.Error()

	b.log.Error().
		Err(err).
		Str("module", module).
		Msg("Error event")

	b.Emit(ErrorOccurred, module, data)
}
