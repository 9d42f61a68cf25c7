package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"time"
)

// Default timeouts for Dialer.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultWriteTimeout = 5 * time.Second

	peerCheckWait = time.Millisecond
)

// ErrPeerClosed is wrapped in a SendError when the receiver has hung up.
var ErrPeerClosed = errors.New("connection closed by peer")

// Dialer opens sessions to one fixed address.
type Dialer struct {
	// addr is host:port of the receiving service
	addr string

	framing      Framing
	dialTimeout  time.Duration
	writeTimeout time.Duration

	// dial is swapped in tests
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// DialerOption configures a Dialer.
type DialerOption func(*Dialer)

// WithFraming sets how payloads are delimited.
func WithFraming(f Framing) DialerOption {
	return func(d *Dialer) {
		d.framing = f
	}
}

// WithDialTimeout bounds each connect attempt.
func WithDialTimeout(timeout time.Duration) DialerOption {
	return func(d *Dialer) {
		d.dialTimeout = timeout
	}
}

// WithWriteTimeout bounds each Send.
func WithWriteTimeout(timeout time.Duration) DialerOption {
	return func(d *Dialer) {
		d.writeTimeout = timeout
	}
}

// WithDialFunc replaces the function used to open connections.
func WithDialFunc(dial func(ctx context.Context, network, addr string) (net.Conn, error)) DialerOption {
	return func(d *Dialer) {
		d.dial = dial
	}
}

// NewDialer creates a Dialer for addr.
func NewDialer(addr string, opts ...DialerOption) *Dialer {
	d := &Dialer{
		addr:         addr,
		framing:      FramingNone,
		dialTimeout:  DefaultDialTimeout,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.dial == nil {
		nd := &net.Dialer{Timeout: d.dialTimeout}
		d.dial = nd.DialContext
	}
	return d
}

// Addr returns the address sessions connect to.
func (d *Dialer) Addr() string {
	return d.addr
}

// Framing returns the framing sessions use.
func (d *Dialer) Framing() Framing {
	return d.framing
}

// Connect opens a new session. It performs no handshake.
func (d *Dialer) Connect(ctx context.Context) (*Session, error) {
	if d.dialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.dialTimeout)
		defer cancel()
	}

	conn, err := d.dial(ctx, "tcp", d.addr)
	if err != nil {
		return nil, &ConnectError{Addr: d.addr, Err: err}
	}

	return &Session{
		conn:         conn,
		addr:         d.addr,
		framing:      d.framing,
		writeTimeout: d.writeTimeout,
	}, nil
}

// Session is one live connection. It is not safe for concurrent use; the
// resend loop is its only owner.
type Session struct {
	conn         net.Conn
	addr         string
	framing      Framing
	writeTimeout time.Duration
	sent         int
}

// Send frames payload and writes it with a single Write call.
func (s *Session) Send(payload []byte) error {
	frame, err := s.framing.Frame(payload)
	if err != nil {
		return &SendError{Addr: s.addr, Err: err}
	}

	if err := s.checkPeer(); err != nil {
		return &SendError{Addr: s.addr, Err: err}
	}

	if s.writeTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return &SendError{Addr: s.addr, Err: err}
		}
	}

	n, err := s.conn.Write(frame)
	if err != nil {
		return &SendError{Addr: s.addr, Err: err}
	}
	if n != len(frame) {
		return &SendError{Addr: s.addr, Err: errShortWrite(n, len(frame))}
	}

	s.sent++
	return nil
}

// checkPeer reports a connection the remote has already closed. The
// receiver never writes, so any pending read is either EOF or a reset; a
// write alone would succeed once more before the kernel noticed.
func (s *Session) checkPeer() error {
	if err := s.conn.SetReadDeadline(time.Now().Add(peerCheckWait)); err != nil {
		return err
	}
	defer s.conn.SetReadDeadline(time.Time{})

	var buf [512]byte
	for {
		_, err := s.conn.Read(buf[:])
		if err == nil {
			continue
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return ErrPeerClosed
		}
		return err
	}
}

// Sent returns how many payloads this session delivered.
func (s *Session) Sent() int {
	return s.sent
}

// LocalAddr returns the local end of the connection.
func (s *Session) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// RemoteAddr returns the remote end of the connection.
func (s *Session) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// Close abandons the session.
func (s *Session) Close() error {
	return s.conn.Close()
}
