// Package session maintains the client's view of the server's session
// catalog: a paginated index of lightweight summaries plus a bounded cache
// of fully hydrated sessions.
//
// The index only ever grows by appending pages; the total count reported by
// the server is authoritative on every response. Hydrated sessions are kept
// in an LRU cache so a long-lived client resuming many sessions does not
// grow without bound.
package session
