package wire

import (
	"github.com/google/uuid"
	"github.com/parlorvoice/parlor/pkg/jsontime"
)

// ClientEvent is an outbound control envelope. The zero fields of the
// envelope are omitted on the wire.
type ClientEvent struct {
	Type    EventType      `json:"type"`
	EventID string         `json:"event_id"`
	Time    jsontime.Milli `json:"t"`

	// UISessionID is set on client-hello.
	UISessionID string `json:"ui_session_id,omitempty"`

	// Offset and Limit are set on session-list.
	Offset int `json:"offset,omitempty"`
	Limit  int `json:"limit,omitempty"`

	// SessionID is set on session-get.
	SessionID string `json:"session_id,omitempty"`
}

// NewEventID generates a client event identifier.
func NewEventID() string {
	return "evt_" + uuid.New().String()[:12]
}

func newClientEvent(t EventType) *ClientEvent {
	return &ClientEvent{
		Type:    t,
		EventID: NewEventID(),
		Time:    jsontime.NowEpochMilli(),
	}
}

// NewClientHello builds the post-connect hello. uiSessionID is empty on the
// first connect of a process and carries the prior value on reconnect.
func NewClientHello(uiSessionID string) *ClientEvent {
	ev := newClientEvent(EventClientHello)
	ev.UISessionID = uiSessionID
	return ev
}

// NewInterrupt builds a barge-in request.
func NewInterrupt() *ClientEvent {
	return newClientEvent(EventInterrupt)
}

// NewTurnAbort builds an agent-turn cancellation.
func NewTurnAbort() *ClientEvent {
	return newClientEvent(EventTurnAbort)
}

// NewSessionList builds a session index page request.
func NewSessionList(offset, limit int) *ClientEvent {
	ev := newClientEvent(EventSessionList)
	ev.Offset = offset
	ev.Limit = limit
	return ev
}

// NewSessionGet builds a full-session hydration request.
func NewSessionGet(sessionID string) *ClientEvent {
	ev := newClientEvent(EventSessionGet)
	ev.SessionID = sessionID
	return ev
}
