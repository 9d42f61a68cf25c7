// Package receiver is a stand-in for the service inject feeds. It accepts
// any number of connections, decodes each payload as a JSON object of
// identifier -> secret and merges it into its key table, lowercasing
// identifiers the way the real service does. Only fingerprints are logged.
package receiver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/thruflo/inject/internal/credentials"
	"github.com/thruflo/inject/internal/logging"
	"github.com/thruflo/inject/internal/transport"
)

// Receiver listens for inject payloads.
type Receiver struct {
	ln      net.Listener
	framing transport.Framing
	logger  *logging.Logger

	mu       sync.RWMutex
	keys     map[string]string
	payloads int

	wg sync.WaitGroup
}

// Listen binds addr. Call Serve to start accepting.
func Listen(addr string, framing transport.Framing, logger *logging.Logger) (*Receiver, error) {
	if logger == nil {
		logger = logging.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Receiver{
		ln:      ln,
		framing: framing,
		logger:  logger,
		keys:    make(map[string]string),
	}, nil
}

// Addr returns the bound address.
func (r *Receiver) Addr() string {
	return r.ln.Addr().String()
}

// Serve accepts connections until ctx is canceled.
func (r *Receiver) Serve(ctx context.Context) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-connCtx.Done()
		_ = r.ln.Close()
	}()

	r.logger.Info("listening for key injection", "addr", r.Addr(), "framing", r.framing)

	for {
		conn, err := r.ln.Accept()
		if err != nil {
			cancel()
			r.wg.Wait()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.handle(connCtx, conn)
		}()
	}
}

// Keys returns a copy of the key table.
func (r *Receiver) Keys() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.keys))
	for k, v := range r.keys {
		out[k] = v
	}
	return out
}

// Payloads returns how many payloads were applied.
func (r *Receiver) Payloads() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.payloads
}

func (r *Receiver) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	logger := r.logger.With("remote", conn.RemoteAddr().String())
	logger.Info("client connected")

	fr := transport.NewFrameReader(conn, r.framing)
	for {
		payload, err := fr.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				logger.Info("client disconnected")
				return
			}
			// an unframed stream cannot resync after garbage
			logger.Error("receive handle error", "error", err, "bytes", len(payload))
			return
		}

		if err := r.apply(payload, logger); err != nil {
			logger.Error("receive handle error", "error", err, "bytes", len(payload))
		}
	}
}

func (r *Receiver) apply(payload []byte, logger *logging.Logger) error {
	var data map[string]string
	if err := json.Unmarshal(payload, &data); err != nil {
		return err
	}

	r.mu.Lock()
	for id, secret := range data {
		r.keys[strings.ToLower(id)] = secret
	}
	r.payloads++
	r.mu.Unlock()

	for id, secret := range data {
		logger.Info("key injected", "identifier", id, "fingerprint", credentials.Fingerprint(secret))
	}
	return nil
}
