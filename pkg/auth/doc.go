// Package auth owns the credential exchange with the agent service: login,
// access/refresh tokens, scheduled refresh, and the UI session identifier
// that lets the server correlate reconnects with a prior logical session.
//
// Tokens live in memory and are exposed through read accessors only. The
// refresh token and UI session ID - the session-scoped identity - can be
// persisted to a kv.Store so a CLI process can resume without re-entering
// credentials.
//
// Refresh is bounded to exactly one automatic attempt per expiry. When that
// attempt fails, all stored credentials are cleared and the failure is
// surfaced as ErrSessionExpired; callers must re-authenticate.
package auth
