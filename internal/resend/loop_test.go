package resend

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thruflo/inject/internal/logging"
)

const snapshot = `{"addrA":"keyA","addrB":"keyB"}`

// syncBuffer guards a bytes.Buffer shared between the loop and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLoop(c Connector, src Source) (*Loop, *syncBuffer) {
	out := &syncBuffer{}
	logger := logging.New()
	logger.SetLevel(logging.LevelDebug)
	logger.SetOutput(log.New(out, "", 0))

	return New(Options{
		Connector: c,
		Source:    src,
		Interval:  5 * time.Millisecond,
		BackOff:   backoff.NewConstantBackOff(time.Millisecond),
		Logger:    logger,
	}), out
}

// runLoop starts l in the background and returns a stop func that cancels
// it and returns Run's error.
func runLoop(t *testing.T, l *Loop) func() error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	var once sync.Once
	var runErr error
	stop := func() error {
		once.Do(func() {
			cancel()
			select {
			case runErr = <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("loop did not stop")
			}
		})
		return runErr
	}
	t.Cleanup(func() { _ = stop() })
	return stop
}

func TestNew_Defaults(t *testing.T) {
	l := New(Options{Connector: &fakeConnector{}, Source: staticSource(snapshot)})
	assert.Equal(t, DefaultInterval, l.interval)
	assert.Equal(t, DefaultRetryDelay, l.backoff.NextBackOff())
	assert.Equal(t, StateReconnecting, l.State())
	assert.Equal(t, "reconnecting", l.State().String())
	assert.Equal(t, "connected", StateConnected.String())
}

func TestRun_AnnouncesOnConnect(t *testing.T) {
	c := &fakeConnector{okSends: -1}
	l, _ := newTestLoop(c, staticSource(snapshot))
	stop := runLoop(t, l)

	require.Eventually(t, func() bool {
		return len(c.all()) == 1 && len(c.all()[0].received()) >= 3
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, StateConnected, l.State())
	for _, p := range c.all()[0].received() {
		assert.JSONEq(t, snapshot, string(p))
	}

	assert.ErrorIs(t, stop(), context.Canceled)
	assert.True(t, c.all()[0].isClosed(), "session is abandoned on exit")
	assert.Equal(t, StateReconnecting, l.State())
}

func TestRun_ConnectRefusedRetriesWithoutGivingUp(t *testing.T) {
	refused := errors.New("connection refused")
	c := &fakeConnector{
		connectErrs: []error{refused, refused, refused, refused},
		okSends:     -1,
	}
	l, out := newTestLoop(c, staticSource(snapshot))
	runLoop(t, l)

	require.Eventually(t, func() bool {
		return l.Stats().Connects == 1
	}, 2*time.Second, time.Millisecond)

	st := l.Stats()
	assert.Equal(t, 4, st.ConnectFailures)
	assert.Equal(t, 5, st.ConnectAttempts)
	assert.Contains(t, out.String(), "connect failed")
	assert.Contains(t, out.String(), "reconnected | after_failures=4")

	require.Eventually(t, func() bool {
		s := c.all()
		return len(s) == 1 && len(s[0].received()) > 0
	}, time.Second, time.Millisecond)
	assert.JSONEq(t, snapshot, string(c.all()[0].received()[0]))
}

func TestRun_SendFailuresEachTriggerReconnect(t *testing.T) {
	// every session takes the announce, then breaks on the next tick
	c := &fakeConnector{okSends: 1}
	l, _ := newTestLoop(c, staticSource(snapshot))
	stop := runLoop(t, l)

	const failures = 5
	require.Eventually(t, func() bool {
		return l.Stats().SendFailures >= failures
	}, 5*time.Second, time.Millisecond)

	// a reconnect always finishes its announce, so after stopping every
	// session has seen exactly one payload
	assert.ErrorIs(t, stop(), context.Canceled)

	st := l.Stats()
	assert.GreaterOrEqual(t, st.ConnectAttempts, st.SendFailures)
	assert.Zero(t, st.ConnectFailures)

	sessions := c.all()
	require.GreaterOrEqual(t, len(sessions), failures)
	for i, s := range sessions {
		got := s.received()
		require.Len(t, got, 1, "session %d", i)
		assert.JSONEq(t, snapshot, string(got[0]), "session %d first payload is the full snapshot", i)
		assert.True(t, s.isClosed(), "session %d abandoned", i)
	}
}

func TestRun_AnnounceFailureIsRetried(t *testing.T) {
	c := &fakeConnector{okSends: 0}
	l, out := newTestLoop(c, staticSource(snapshot))
	runLoop(t, l)

	require.Eventually(t, func() bool {
		return len(c.all()) >= 3
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, StateReconnecting, l.State())
	assert.Contains(t, out.String(), "announce")
	for _, s := range c.all()[:2] {
		assert.True(t, s.isClosed())
	}
}

func TestRun_SnapshotErrorTreatedAsFailure(t *testing.T) {
	c := &fakeConnector{okSends: -1}
	l, out := newTestLoop(c, failingSource{})
	runLoop(t, l)

	require.Eventually(t, func() bool {
		return len(c.all()) >= 2
	}, 2*time.Second, time.Millisecond)
	assert.Contains(t, out.String(), "encode failed")
	assert.Zero(t, l.Stats().Sends)
}

func TestRun_ThrottlesRepeatedFailures(t *testing.T) {
	errs := make([]error, 50)
	for i := range errs {
		errs[i] = errors.New("connection refused")
	}
	c := &fakeConnector{connectErrs: errs, okSends: -1}
	l, out := newTestLoop(c, staticSource(snapshot))
	l.throttle = newLogThrottle(2, 100)
	runLoop(t, l)

	require.Eventually(t, func() bool {
		return l.Stats().Connects == 1
	}, 5*time.Second, time.Millisecond)

	assert.Equal(t, 2, bytes.Count([]byte(out.String()), []byte("WARN: connect failed")))
}

func TestRun_CanceledBeforeStart(t *testing.T) {
	c := &fakeConnector{okSends: -1}
	l, out := newTestLoop(c, staticSource(snapshot))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, c.all())
	assert.Contains(t, out.String(), "resend loop stopped")
}
