package testutil

import (
	"context"
	"testing"
	"time"
)

const (
	// DefaultLoopTimeout bounds a resend loop run inside a test.
	DefaultLoopTimeout = 10 * time.Second

	// DefaultTestBuffer is subtracted from the test deadline so cleanup
	// still has time to run.
	DefaultTestBuffer = 2 * time.Second
)

// ContextWithTestDeadline creates a context that ends before the test's
// deadline, or after fallback if the test has none.
func ContextWithTestDeadline(t *testing.T, fallback time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadlineBuffer(t, fallback, DefaultTestBuffer)
}

// ContextWithTestDeadlineBuffer is ContextWithTestDeadline with a custom
// buffer. If the adjusted deadline is already past, fallback is used.
func ContextWithTestDeadlineBuffer(t *testing.T, fallback, buffer time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()

	if deadline, ok := t.Deadline(); ok {
		adjusted := deadline.Add(-buffer)
		if time.Until(adjusted) > 0 && time.Until(adjusted) < fallback {
			return context.WithDeadline(context.Background(), adjusted)
		}
	}
	return context.WithTimeout(context.Background(), fallback)
}

// ShortOperationContext is for single connect/send calls.
func ShortOperationContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadline(t, 5*time.Second)
}

// LoopContext is for running the resend loop until the test cancels it.
func LoopContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadline(t, DefaultLoopTimeout)
}
