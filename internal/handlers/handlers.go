package handlers

import (
	"context"
	"sync"
	"time"

	"partybot/internal/game"

	"go.uber.org/zap"
)

// AllChannels subscribes to the notifications of every channel.
const AllChannels = "*"

// EventMessage is published for every line a game announces.
const EventMessage = "message"

const (
	defaultHeartbeat = 30 * time.Second
	recentLimit      = 10
)

// SessionSource returns the live game session.
type SessionSource interface {
	Active() (*game.Session, error)
}

// Handler serves the spectator scoreboard.
type Handler struct {
	sessions  SessionSource
	eventBus  *EventBus
	logger    *zap.Logger
	publicURL string
	heartbeat time.Duration
}

// New creates a new handler
func New(sessions SessionSource, bus *EventBus, logger *zap.Logger, publicURL string) *Handler {
	if bus == nil {
		bus = NewEventBus()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sessions:  sessions,
		eventBus:  bus,
		logger:    logger,
		publicURL: publicURL,
		heartbeat: defaultHeartbeat,
	}
}

// EventBus returns the bus the scoreboard stream listens on.
func (h *Handler) EventBus() *EventBus {
	return h.eventBus
}

// Event is one game notification.
type Event struct {
	Type    string
	Channel string
	Text    string
	At      time.Time
}

// EventBus manages event subscriptions. It implements game.Notifier so the
// game engine can publish to it directly.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
	recent      []Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]chan Event),
	}
}

// Subscribe subscribes to events for a channel, or AllChannels.
func (eb *EventBus) Subscribe(channel string) chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan Event, 10)
	eb.subscribers[channel] = append(eb.subscribers[channel], ch)
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (eb *EventBus) Unsubscribe(channel string, ch chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subs := eb.subscribers[channel]
	for i, sub := range subs {
		if sub == ch {
			eb.subscribers[channel] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(eb.subscribers[channel]) == 0 {
		delete(eb.subscribers, channel)
	}
}

// Publish delivers an event to the channel's subscribers and to AllChannels
// subscribers. Slow subscribers miss events rather than block the game.
func (eb *EventBus) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.recent = append(eb.recent, event)
	if len(eb.recent) > recentLimit {
		eb.recent = eb.recent[len(eb.recent)-recentLimit:]
	}

	deliver(eb.subscribers[event.Channel], event)
	if event.Channel != AllChannels {
		deliver(eb.subscribers[AllChannels], event)
	}
}

func deliver(subs []chan Event, event Event) {
	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}

// Notify publishes a game announcement.
func (eb *EventBus) Notify(_ context.Context, channel game.ChannelRef, text string) {
	eb.Publish(Event{Type: EventMessage, Channel: string(channel), Text: text})
}

// Recent returns the latest announcements, oldest first.
func (eb *EventBus) Recent() []Event {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	out := make([]Event, len(eb.recent))
	copy(out, eb.recent)
	return out
}
