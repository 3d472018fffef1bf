package events

import (
	"sync"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

type Channel string

func (c Channel) String() string {
	return string(c)
}

const (
	INVENTORY_CHANNEL Channel = "inventory"
)

type EventType string

const (
	FILAMENT_CREATED EventType = "filament.created"
	FILAMENT_UPDATED EventType = "filament.updated"
	FILAMENT_DELETED EventType = "filament.deleted"
	FILAMENT_RETIRED EventType = "filament.retired"
	MODEL_CREATED    EventType = "model.created"
	MODEL_UPDATED    EventType = "model.updated"
	MODEL_DELETED    EventType = "model.deleted"
	PRINT_CREATED    EventType = "print.created"
	PRINT_UPDATED    EventType = "print.updated"
	PRINT_DELETED    EventType = "print.deleted"
	STORE_IMPORTED   EventType = "store.imported"
)

// Event notifies subscribers that an entity changed. Grid views listening
// on the websocket feed re-query when one arrives.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Channel   Channel        `json:"channel"`
	EntityID  int            `json:"entityId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type EventHandler func(event Event) error

// EventBus is an in-process publish/subscribe fan-out. The whole inventory
// lives in one process, so there is no broker behind it.
type EventBus struct {
	logger   logger.Logger
	handlers map[Channel][]EventHandler
	mutex    sync.RWMutex
	closed   bool
}

func New() *EventBus {
	return &EventBus{
		logger:   logger.New("EventBus"),
		handlers: make(map[Channel][]EventHandler),
	}
}

func (eb *EventBus) Publish(channel Channel, event Event) error {
	log := eb.logger.Function("Publish")

	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if event.Channel == "" {
		event.Channel = channel
	}

	eb.mutex.RLock()
	if eb.closed {
		eb.mutex.RUnlock()
		return log.ErrMsg("event bus is closed")
	}
	handlers := append([]EventHandler(nil), eb.handlers[channel]...)
	eb.mutex.RUnlock()

	log.Debug("Event published",
		"channel", channel,
		"eventID", event.ID,
		"eventType", event.Type,
	)

	for i, handler := range handlers {
		if err := handler(event); err != nil {
			log.Er(
				"handler failed",
				err,
				"channel", channel,
				"eventID", event.ID,
				"handlerIndex", i,
			)
		}
	}

	return nil
}

func (eb *EventBus) Subscribe(channel Channel, handler EventHandler) error {
	log := eb.logger.Function("Subscribe")

	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if eb.closed {
		return log.ErrMsg("event bus is closed")
	}

	eb.handlers[channel] = append(eb.handlers[channel], handler)
	log.Info("Handler subscribed to channel", "channel", channel)

	return nil
}

func (eb *EventBus) Close() error {
	log := eb.logger.Function("Close")

	eb.mutex.Lock()
	eb.closed = true
	eb.handlers = make(map[Channel][]EventHandler)
	eb.mutex.Unlock()

	log.Info("EventBus closed")
	return nil
}
