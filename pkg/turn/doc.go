// Package turn arbitrates which party may transmit audio on a live
// connection.
//
// At most one of the user and the agent holds the turn at any instant. The
// arbiter consumes turn-start/turn-end control events from the server and
// local capture start/stop calls, and gates the capture pipeline through
// CanTransmit.
//
// Barge-in is optimistic: when local capture begins while the agent is
// speaking, the arbiter emits an interrupt upstream, passes through the
// Interrupted state, and grants the user the turn immediately without
// waiting for a server acknowledgement. The server stays authoritative: a
// later turn-start for the agent overrides the optimistic grant.
package turn
