package testutil

import (
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thruflo/inject/internal/transport"
)

// Received is one payload decoded by a Sink.
type Received struct {
	// Conn is the 1-based index of the connection it arrived on.
	Conn    int
	Payload []byte
}

// Sink is a loopback TCP receiver for tests.
type Sink struct {
	ln         net.Listener
	framing    transport.Framing
	closeAfter int

	mu    sync.Mutex
	conns int
	all   []Received

	received chan Received
	wg       sync.WaitGroup
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// CloseAfter makes the sink close each connection after n payloads.
func CloseAfter(n int) SinkOption {
	return func(s *Sink) {
		s.closeAfter = n
	}
}

// NewSink starts a sink on a random loopback port.
func NewSink(t *testing.T, framing transport.Framing, opts ...SinkOption) *Sink {
	t.Helper()
	return NewSinkAt(t, "127.0.0.1:0", framing, opts...)
}

// NewSinkAt starts a sink listening on addr.
func NewSinkAt(t *testing.T, addr string, framing transport.Framing, opts ...SinkOption) *Sink {
	t.Helper()

	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)

	s := &Sink{
		ln:       ln,
		framing:  framing,
		received: make(chan Received, 1024),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(s.Close)
	return s
}

// FreeAddr returns a loopback address nobody is listening on.
func FreeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

// SplitAddr returns host and numeric port of addr.
func SplitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

// Addr returns the address the sink listens on.
func (s *Sink) Addr() string {
	return s.ln.Addr().String()
}

// Connections returns how many connections were accepted.
func (s *Sink) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

// All returns every payload received so far.
func (s *Sink) All() []Received {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Received, len(s.all))
	copy(out, s.all)
	return out
}

// Next waits up to timeout for the next payload.
func (s *Sink) Next(t *testing.T, timeout time.Duration) Received {
	t.Helper()
	select {
	case r := <-s.received:
		return r
	case <-time.After(timeout):
		require.FailNow(t, "timed out waiting for payload", "after %v", timeout)
		return Received{}
	}
}

// Close stops accepting and waits for handlers to exit.
func (s *Sink) Close() {
	_ = s.ln.Close()
	s.wg.Wait()
}

func (s *Sink) acceptLoop() {
	defer s.wg.Done()

	var conns []net.Conn
	defer func() {
		for _, c := range conns {
			_ = c.Close()
		}
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns++
		idx := s.conns
		s.mu.Unlock()

		conns = append(conns, conn)
		s.wg.Add(1)
		go s.handle(conn, idx)
	}
}

func (s *Sink) handle(conn net.Conn, idx int) {
	defer s.wg.Done()
	defer conn.Close()

	fr := transport.NewFrameReader(conn, s.framing)
	count := 0
	for {
		payload, err := fr.Next()
		if err != nil {
			return
		}

		r := Received{Conn: idx, Payload: payload}
		s.mu.Lock()
		s.all = append(s.all, r)
		s.mu.Unlock()

		select {
		case s.received <- r:
		default:
		}

		count++
		if s.closeAfter > 0 && count >= s.closeAfter {
			return
		}
	}
}
