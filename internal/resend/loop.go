package resend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/thruflo/inject/internal/logging"
	"github.com/thruflo/inject/internal/transport"
)

// State is the loop's connection state.
type State int

const (
	// StateReconnecting means there is no usable session.
	StateReconnecting State = iota
	// StateConnected means a session is open and has received the snapshot.
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateReconnecting:
		return "reconnecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Session is an open connection that accepts whole payloads.
type Session interface {
	Send(payload []byte) error
	Close() error
}

// Connector opens sessions to the receiving service.
type Connector interface {
	Connect(ctx context.Context) (Session, error)
}

// Source produces the payload sent on every tick.
type Source interface {
	Snapshot() ([]byte, error)
}

// FromDialer adapts a transport.Dialer to Connector.
func FromDialer(d *transport.Dialer) Connector {
	return dialerConnector{d: d}
}

type dialerConnector struct {
	d *transport.Dialer
}

func (c dialerConnector) Connect(ctx context.Context) (Session, error) {
	s, err := c.d.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Stats counts what the loop has done.
type Stats struct {
	ConnectAttempts int
	Connects        int
	ConnectFailures int
	Sends           int
	SendFailures    int
}

// Options holds the dependencies and timing for a Loop.
type Options struct {
	Connector Connector
	Source    Source

	// Interval between resends while connected.
	Interval time.Duration

	// BackOff yields the wait after each failure. Defaults to a constant
	// DefaultRetryDelay.
	BackOff backoff.BackOff

	Logger *logging.Logger

	// LogBurst and LogEvery tune failure log throttling.
	LogBurst int
	LogEvery int
}

// Defaults for Options.
const (
	DefaultInterval   = 10 * time.Second
	DefaultRetryDelay = 2 * time.Second
)

// Loop re-sends the snapshot forever, reconnecting on failure. A Loop is
// driven by a single goroutine; only Stats and State may be read from others.
type Loop struct {
	connector Connector
	source    Source
	interval  time.Duration
	backoff   backoff.BackOff
	logger    *logging.Logger
	throttle  *logThrottle

	session Session
	// failures counts consecutive failed connects or sends
	failures int

	mu    sync.Mutex
	state State
	stats Stats
}

// New creates a Loop in the Reconnecting state.
func New(opts Options) *Loop {
	l := &Loop{
		connector: opts.Connector,
		source:    opts.Source,
		interval:  opts.Interval,
		backoff:   opts.BackOff,
		logger:    opts.Logger,
		throttle:  newLogThrottle(opts.LogBurst, opts.LogEvery),
		state:     StateReconnecting,
	}
	if l.interval <= 0 {
		l.interval = DefaultInterval
	}
	if l.backoff == nil {
		l.backoff = backoff.NewConstantBackOff(DefaultRetryDelay)
	}
	if l.logger == nil {
		l.logger = logging.Default()
	}
	return l
}

// State returns the current state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Stats returns a copy of the counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Run drives the loop until ctx is canceled, then abandons the session and
// returns ctx.Err(). Transport failures never end the loop.
func (l *Loop) Run(ctx context.Context) error {
	defer l.abandon()

	for {
		if err := ctx.Err(); err != nil {
			l.logStopped()
			return err
		}

		switch l.State() {
		case StateReconnecting:
			if err := l.reconnect(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				l.logFailure("connect failed", err)
				l.sleep(ctx, l.nextDelay())
				continue
			}

		case StateConnected:
			if !l.sleep(ctx, l.interval) {
				continue
			}
			if err := l.send(); err != nil {
				l.logFailure("send failed", err)
				l.abandon()
				l.sleep(ctx, l.nextDelay())
				continue
			}
		}
	}
}

// reconnect opens a session and announces the current snapshot on it. A
// failed announce abandons the new session.
func (l *Loop) reconnect(ctx context.Context) error {
	l.count(func(s *Stats) { s.ConnectAttempts++ })

	session, err := l.connector.Connect(ctx)
	if err != nil {
		l.count(func(s *Stats) { s.ConnectFailures++ })
		return err
	}
	l.session = session
	l.count(func(s *Stats) { s.Connects++ })

	if err := l.send(); err != nil {
		l.abandon()
		return fmt.Errorf("announce: %w", err)
	}

	if l.failures > 0 {
		l.logger.Info("reconnected", "after_failures", l.failures)
	} else {
		l.logger.Info("connected")
	}
	l.failures = 0
	l.throttle.reset()
	l.setState(StateConnected)
	return nil
}

// send writes one snapshot on the current session.
func (l *Loop) send() error {
	if l.session == nil {
		return errNoSession
	}

	payload, err := l.source.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := l.session.Send(payload); err != nil {
		l.count(func(s *Stats) { s.SendFailures++ })
		return err
	}

	l.count(func(s *Stats) { s.Sends++ })
	l.backoff.Reset()
	l.logger.Debug("snapshot sent", "bytes", len(payload))
	return nil
}

// abandon drops the current session and moves to Reconnecting.
func (l *Loop) abandon() {
	if l.session != nil {
		_ = l.session.Close()
		l.session = nil
	}
	l.setState(StateReconnecting)
}

func (l *Loop) nextDelay() time.Duration {
	d := l.backoff.NextBackOff()
	if d == backoff.Stop || d < 0 {
		return l.interval
	}
	return d
}

// sleep blocks for d or until ctx is done. It reports whether the full
// duration elapsed.
func (l *Loop) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (l *Loop) logFailure(msg string, err error) {
	l.failures++

	ok, dropped := l.throttle.allow(msg + ": " + err.Error())
	if !ok {
		return
	}

	kv := []interface{}{"error", err, "consecutive", l.failures}
	if dropped > 0 {
		kv = append(kv, "suppressed", dropped)
	}
	if l.throttle.streak() == l.throttle.burst {
		kv = append(kv, "note", fmt.Sprintf("repeats now logged every %d", l.throttle.every))
	}
	l.logger.Warn(msg, kv...)
}

func (l *Loop) logStopped() {
	st := l.Stats()
	l.logger.Info("resend loop stopped",
		"connects", st.Connects,
		"sends", st.Sends,
		"connect_failures", st.ConnectFailures,
		"send_failures", st.SendFailures)
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = s
}

func (l *Loop) count(fn func(*Stats)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.stats)
}

var errNoSession = errors.New("no session")
