package websocket

import (
	"github.com/ramonehamilton/MTG-Buylist/internal/events"
)

// Observer forwards dispatched events to WebSocket clients.
type Observer struct {
	hub *Hub
}

// NewObserver creates an observer that broadcasts every event through hub.
func NewObserver(hub *Hub) *Observer {
	return &Observer{hub: hub}
}

// OnEvent broadcasts the event payload under its type.
func (o *Observer) OnEvent(event events.Event) error {
	if o.hub == nil {
		return nil
	}
	o.hub.Broadcast(event.Type, event.Data)
	return nil
}

// GetName returns the observer's name.
func (o *Observer) GetName() string {
	return "WebSocketObserver"
}

// ShouldHandle returns true for all events.
func (o *Observer) ShouldHandle(string) bool {
	return true
}

var _ events.Observer = (*Observer)(nil)
