// Package notify is the process-wide notification sink: a bounded,
// most-recent-first event history plus an explicit observer registry.
// Components depend on the Sink, never on ambient global state.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit caps the retained event history.
const DefaultHistoryLimit = 50

// Kind classifies a notification event.
type Kind string

const (
	KindStale Kind = "stale"
	KindInfo  Kind = "info"
	KindError Kind = "error"
)

// Event is one user-facing notification.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Kind       Kind      `json:"kind"`
	Message    string    `json:"message"`
	Ticker     string    `json:"ticker,omitempty"`
	Exchange   string    `json:"exchange,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Handler receives published events.
type Handler func(Event)

// Subscription identifies an installed handler so it can be removed.
type Subscription int

// Sink retains a capped history and dispatches events to handlers.
type Sink struct {
	mu       sync.Mutex
	limit    int
	history  []Event // Most-recent-first
	handlers map[Subscription]Handler
	nextSub  Subscription
}

// NewSink creates a Sink. A non-positive limit uses DefaultHistoryLimit.
func NewSink(limit int) *Sink {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Sink{
		limit:    limit,
		handlers: make(map[Subscription]Handler),
	}
}

// Publish assigns the event an ID, appends it to the history (evicting the
// oldest beyond the cap), and dispatches to every installed handler.
func (s *Sink) Publish(ev Event) Event {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}

	s.mu.Lock()
	s.history = append([]Event{ev}, s.history...)
	if len(s.history) > s.limit {
		s.history = s.history[:s.limit]
	}
	handlers := make([]Handler, 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
	return ev
}

// Subscribe installs a handler and returns its removal token.
func (s *Sink) Subscribe(h Handler) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	sub := s.nextSub
	s.handlers[sub] = h
	return sub
}

// Unsubscribe removes a previously installed handler.
func (s *Sink) Unsubscribe(sub Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.handlers, sub)
}

// History returns a copy of the retained events, most recent first.
func (s *Sink) History() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, len(s.history))
	copy(out, s.history)
	return out
}
