package client

import "errors"

var (
	// ErrNotConnected is returned synchronously when an operation requires a
	// live transport and the connection is in any other state.
	ErrNotConnected = errors.New("client: not connected")

	// ErrConnectionFailed is terminal: the reconnect budget is exhausted and
	// no further automatic retries happen.
	ErrConnectionFailed = errors.New("client: connection failed")

	// ErrAuthRejected means the server refused the presented access token
	// during the transport handshake. Terminal; re-authentication required.
	ErrAuthRejected = errors.New("client: authentication rejected")

	// ErrAlreadyConnected is returned by Connect on a live connection.
	ErrAlreadyConnected = errors.New("client: already connected")
)

// IsAuthRejected reports whether err stems from the server refusing the
// access token.
func IsAuthRejected(err error) bool {
	return errors.Is(err, ErrAuthRejected)
}
