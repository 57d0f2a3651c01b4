// Package progress pushes generation lifecycle events to connected clients
// over WebSocket, so the UI can reflect the in-flight flag without polling.
package progress

import (
	"log/slog"
	"sync"

	"github.com/ashureev/skripsi-cepat/internal/domain"
)

// Event is one generation lifecycle notification.
type Event struct {
	Type    string         `json:"type"`
	Section domain.Section `json:"section"`
	Message string         `json:"message,omitempty"`
}

const (
	EventSectionStarted  = "section_started"
	EventSectionFinished = "section_finished"
	EventSectionFailed   = "section_failed"
)

// Hub fans events out to every WebSocket subscriber of a session.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

func (h *Hub) subscribe(userID string) chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Event]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	return ch
}

func (h *Hub) unsubscribe(userID string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[userID]; ok {
		delete(set, ch)
		if len(set) == 0 {
			delete(h.subs, userID)
		}
	}
}

// Publish delivers an event to every subscriber of the session without
// blocking; a subscriber that cannot keep up loses events.
func (h *Hub) Publish(userID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[userID] {
		select {
		case ch <- ev:
		default:
			slog.Debug("Dropping progress event for slow subscriber",
				"user_id", userID, "type", ev.Type)
		}
	}
}

// SectionStarted implements the orchestrator's progress publisher.
func (h *Hub) SectionStarted(userID string, sec domain.Section) {
	h.Publish(userID, Event{Type: EventSectionStarted, Section: sec})
}

// SectionFinished implements the orchestrator's progress publisher.
func (h *Hub) SectionFinished(userID string, sec domain.Section) {
	h.Publish(userID, Event{Type: EventSectionFinished, Section: sec})
}

// SectionFailed implements the orchestrator's progress publisher.
func (h *Hub) SectionFailed(userID string, sec domain.Section, message string) {
	h.Publish(userID, Event{Type: EventSectionFailed, Section: sec, Message: message})
}
