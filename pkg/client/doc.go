// Package client implements the connection engine: the owner of the single
// full-duplex transport to the agent server and of everything that hangs
// off it.
//
// The engine multiplexes two frame kinds over one websocket connection:
// text frames carry discriminated JSON control envelopes (see package wire),
// binary frames carry raw PCM16 audio. Inbound control frames are dispatched
// by type to the turn arbiter, the session index, the initialization
// tracker, or a pending request; inbound binary frames go to the playback
// path.
//
// On an unexpected close the engine reconnects with exponential backoff and
// jitter, carrying the UI session ID so the server can correlate the new
// transport with the prior logical session. A successful reconnect triggers
// a resync: the initialization tracker and turn arbiter reset, pending
// requests fail, and authoritative state (catalogs, the first session-index
// page) is re-fetched rather than reconciled against anything buffered
// before the disconnect.
package client
