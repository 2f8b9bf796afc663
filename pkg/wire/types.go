package wire

import (
	"encoding/json"

	"github.com/parlorvoice/parlor/pkg/jsontime"
)

// SessionSummary is a lightweight catalog entry for one server-persisted
// session. Summaries are immutable once received; identity is the ID.
type SessionSummary struct {
	ID        string         `json:"id"`
	Name      *string        `json:"name"`
	AgentKey  string         `json:"agent_key"`
	CreatedAt jsontime.Milli `json:"created_at"`
	UpdatedAt jsontime.Milli `json:"updated_at"`
}

// DisplayName returns the session name, or its ID when unnamed.
func (s *SessionSummary) DisplayName() string {
	if s.Name != nil && *s.Name != "" {
		return *s.Name
	}
	return s.ID
}

// Message is one entry in a session's ordered history.
type Message struct {
	ID      string         `json:"id"`
	Role    string         `json:"role"`
	Text    string         `json:"text,omitempty"`
	AudioMs int            `json:"audio_ms,omitempty"`
	Time    jsontime.Milli `json:"t"`
}

// SessionDetail is a fully hydrated session: summary plus message history
// and opaque metadata.
type SessionDetail struct {
	SessionSummary
	Messages []Message       `json:"messages"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// SessionPage is one page of the session index.
type SessionPage struct {
	Sessions []SessionSummary `json:"sessions"`
	Total    int              `json:"total"`
}
