// Package resend runs the loop that keeps the receiving service supplied
// with the current secret map.
//
// The loop has two states. Reconnecting opens a new session and immediately
// sends the full snapshot; Connected re-sends the snapshot every interval.
// Any failure abandons the session, waits the backoff delay and goes back to
// Reconnecting. The loop only returns when its context is canceled.
package resend
