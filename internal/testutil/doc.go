// Package testutil provides shared test helpers for inject.
//
// # Fixtures
//
//   - SampleCredentialsFile, SampleAnswers() - identifier file content and
//     the scripted prompt answers that fill it
//   - WriteCredentialsFile(t, content) - writes an identifier file in a temp dir
//   - ScriptedPrompter - answers prompts by label, optionally from a queue,
//     and records what was asked
//
// # Sink
//
// Sink is a loopback TCP receiver that records every payload it decodes,
// tagged with the connection it arrived on. It can close connections after
// a number of payloads to simulate a receiver that drops the client.
//
//	sink := testutil.NewSink(t, transport.FramingNewline, testutil.CloseAfter(1))
//	got := sink.Next(t, time.Second)
//
// # Timeouts
//
// ContextWithTestDeadline and ShortOperationContext derive contexts that end
// before the test deadline.
package testutil
