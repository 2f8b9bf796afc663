// Package wire defines the control-plane protocol spoken between a parlor
// client and an agent server over a single full-duplex transport.
//
// The transport carries two frame kinds. Text frames are UTF-8 JSON envelopes
// with a "type" discriminator; binary frames are raw little-endian PCM16
// audio at the negotiated rate, with no header. This package covers only the
// text frames: the closed set of event types, the server event envelope, and
// constructors for client-originated events.
//
// Unknown event types decode to EventUnknown rather than failing, so newer
// servers can add event types without breaking older clients.
package wire
