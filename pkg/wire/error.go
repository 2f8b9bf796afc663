package wire

import "fmt"

// Error is a server-reported protocol or request error.
type Error struct {
	// Code is the machine-readable error code (e.g. "rate_limited").
	Code string `json:"code,omitempty"`

	// Message is the human-readable description.
	Message string `json:"message,omitempty"`

	// EventID is the client event that triggered the error, if any.
	EventID string `json:"event_id,omitempty"`

	// HTTPStatus is set for errors raised over the HTTP side-channel.
	HTTPStatus int `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("wire: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("wire: %s", e.Message)
}

// IsCapacity reports whether the server rejected the request for capacity
// reasons (rate limiting, overload). Such requests may be retried with
// backoff by the caller.
func (e *Error) IsCapacity() bool {
	switch e.Code {
	case "rate_limited", "overloaded", "capacity":
		return true
	}
	return e.HTTPStatus == 429 || e.HTTPStatus == 503
}

// EventError is the error payload carried inside an error envelope.
type EventError struct {
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ToError converts the payload to an Error.
func (e *EventError) ToError() *Error {
	return &Error{Code: e.Code, Message: e.Message, EventID: e.RequestID}
}
