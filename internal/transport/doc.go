// Package transport owns the single outbound TCP connection inject uses to
// deliver the secret map.
//
// A Dialer opens Sessions; a Session writes one framed payload per Send.
// Nothing here retries. Connect failures come back as *ConnectError and
// write failures as *SendError, and the resend loop decides what to do.
//
// Framing is configurable because TCP does not preserve message
// boundaries. FramingNone writes the raw JSON bytes, which is what the
// receiving service parses today; FramingNewline and FramingLength give a
// well-behaved reader something to split on. FrameReader decodes all three.
package transport
