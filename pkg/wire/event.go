package wire

import (
	"encoding/json"
	"fmt"

	"github.com/parlorvoice/parlor/pkg/jsontime"
)

// EventType discriminates text-frame envelopes. The set is closed per
// protocol version; unrecognized values map to EventUnknown.
type EventType string

// Server event types (server -> client).
const (
	// Catalog and profile pushes. The six below are the required
	// initialization kinds: a freshly (re)connected client is initialized
	// once it has received each of them at least once.
	EventUserProfile   EventType = "user-profile"
	EventAgentCatalog  EventType = "agent-catalog"
	EventVoiceCatalog  EventType = "voice-catalog"
	EventAvatarCatalog EventType = "avatar-catalog"
	EventToolCatalog   EventType = "tool-catalog"
	EventActiveSession EventType = "active-session"

	// Turn arbitration.
	EventTurnStart EventType = "turn-start"
	EventTurnEnd   EventType = "turn-end"

	// Session index responses.
	EventSessionPage   EventType = "session-page"
	EventSessionDetail EventType = "session-detail"

	// Error envelope.
	EventTypeError EventType = "error"

	// EventUnknown is the decode result for any type the client does not
	// recognize. Such frames are logged and dropped, never rejected.
	EventUnknown EventType = ""
)

// Client event types (client -> server).
const (
	// EventClientHello is sent right after the transport opens. It carries
	// the UI session ID (empty on first connect) so the server can correlate
	// a reconnect with the prior logical session and re-push catalogs.
	EventClientHello EventType = "client-hello"

	// EventInterrupt requests a barge-in: the user starts speaking while the
	// agent holds the turn.
	EventInterrupt EventType = "interrupt"

	// EventTurnAbort cancels an in-progress agent turn without claiming it.
	EventTurnAbort EventType = "turn-abort"

	// Session index requests.
	EventSessionList EventType = "session-list"
	EventSessionGet  EventType = "session-get"
)

// serverEventTypes is the closed set of types the client dispatches on.
var serverEventTypes = map[EventType]bool{
	EventUserProfile:   true,
	EventAgentCatalog:  true,
	EventVoiceCatalog:  true,
	EventAvatarCatalog: true,
	EventToolCatalog:   true,
	EventActiveSession: true,
	EventTurnStart:     true,
	EventTurnEnd:       true,
	EventSessionPage:   true,
	EventSessionDetail: true,
	EventTypeError:     true,
}

// RequiredInitEvents returns the event kinds that must all arrive before a
// connection counts as initialized.
func RequiredInitEvents() []EventType {
	return []EventType{
		EventUserProfile,
		EventAgentCatalog,
		EventVoiceCatalog,
		EventAvatarCatalog,
		EventToolCatalog,
		EventActiveSession,
	}
}

// Speaker identifies a turn holder on the wire.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// ServerEvent is the decoded form of an inbound text frame. Only the fields
// relevant to the event's type are populated.
type ServerEvent struct {
	// Type is the envelope discriminator. EventUnknown for unrecognized types.
	Type EventType `json:"type"`

	// EventID is the server-assigned identifier for this event.
	EventID string `json:"event_id,omitempty"`

	// RequestID echoes the event_id of the client request this event answers,
	// for session-page and session-detail.
	RequestID string `json:"request_id,omitempty"`

	// Time is the server timestamp of the event.
	Time jsontime.Milli `json:"t,omitempty"`

	// Speaker is set on turn-start and turn-end.
	Speaker Speaker `json:"speaker,omitempty"`

	// Catalog holds the raw payload of profile/catalog pushes. The client
	// caches it opaquely; rendering it is a presentation concern.
	Catalog json.RawMessage `json:"catalog,omitempty"`

	// Sessions and Total are set on session-page.
	Sessions []SessionSummary `json:"sessions,omitempty"`
	Total    int              `json:"total,omitempty"`

	// Session is set on session-detail and active-session.
	Session *SessionDetail `json:"session,omitempty"`

	// Err is set on error envelopes.
	Err *EventError `json:"error,omitempty"`

	// RawType preserves the wire value of "type" when Type is EventUnknown.
	RawType string `json:"-"`

	// Raw is the original frame, kept for debug logging.
	Raw []byte `json:"-"`
}

// ParseServerEvent decodes an inbound text frame. Unrecognized types yield an
// event with Type == EventUnknown and RawType set; malformed JSON is an error.
func ParseServerEvent(frame []byte) (*ServerEvent, error) {
	var ev ServerEvent
	if err := json.Unmarshal(frame, &ev); err != nil {
		return nil, fmt.Errorf("wire: parse server event: %w", err)
	}
	ev.Raw = frame
	if !serverEventTypes[ev.Type] {
		ev.RawType = string(ev.Type)
		ev.Type = EventUnknown
	}
	return &ev, nil
}
