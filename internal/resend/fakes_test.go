package resend

import (
	"context"
	"errors"
	"sync"
)

var errBrokenPipe = errors.New("broken pipe")

// fakeSession accepts okSends payloads, then fails every Send. okSends < 0
// never fails.
type fakeSession struct {
	mu       sync.Mutex
	okSends  int
	payloads [][]byte
	closed   bool
}

func (s *fakeSession) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("use of closed session")
	}
	if s.okSends >= 0 && len(s.payloads) >= s.okSends {
		return errBrokenPipe
	}
	s.payloads = append(s.payloads, append([]byte(nil), payload...))
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) received() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.payloads...)
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeConnector fails the first len(connectErrs) connects, then hands out
// sessions that accept okSends payloads each.
type fakeConnector struct {
	mu          sync.Mutex
	connectErrs []error
	okSends     int
	sessions    []*fakeSession
}

func (c *fakeConnector) Connect(ctx context.Context) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.connectErrs) > 0 {
		err := c.connectErrs[0]
		c.connectErrs = c.connectErrs[1:]
		return nil, err
	}
	s := &fakeSession{okSends: c.okSends}
	c.sessions = append(c.sessions, s)
	return s, nil
}

func (c *fakeConnector) all() []*fakeSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*fakeSession(nil), c.sessions...)
}

type staticSource []byte

func (s staticSource) Snapshot() ([]byte, error) {
	return s, nil
}

type failingSource struct{}

func (failingSource) Snapshot() ([]byte, error) {
	return nil, errors.New("encode failed")
}
