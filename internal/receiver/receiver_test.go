package receiver

import (
	"context"
	"net"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thruflo/inject/internal/logging"
	"github.com/thruflo/inject/internal/transport"
)

func startReceiver(t *testing.T, framing transport.Framing) *Receiver {
	t.Helper()

	r, err := Listen("127.0.0.1:0", framing, logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("receiver did not stop")
		}
	})
	return r
}

func send(t *testing.T, addr string, framing transport.Framing, payloads ...string) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	for _, p := range payloads {
		frame, err := framing.Frame([]byte(p))
		require.NoError(t, err)
		_, err = conn.Write(frame)
		require.NoError(t, err)
	}
}

func TestReceiver_LowercasesAndMerges(t *testing.T) {
	r := startReceiver(t, transport.FramingNewline)

	send(t, r.Addr(), transport.FramingNewline,
		`{"0xABC":"k1"}`,
		`{"0xabc":"k2","0xDEF":"k3"}`)

	require.Eventually(t, func() bool { return r.Payloads() == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, map[string]string{"0xabc": "k2", "0xdef": "k3"}, r.Keys())
}

func TestReceiver_UnframedStream(t *testing.T) {
	r := startReceiver(t, transport.FramingNone)

	send(t, r.Addr(), transport.FramingNone, `{"a":"1"}`, `{"b":"2"}`)

	require.Eventually(t, func() bool { return r.Payloads() == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, r.Keys())
}

func TestReceiver_SkipsBadFrame(t *testing.T) {
	r := startReceiver(t, transport.FramingLength)

	send(t, r.Addr(), transport.FramingLength, `["not","an","object"]`, `{"a":"1"}`)

	require.Eventually(t, func() bool { return r.Payloads() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, map[string]string{"a": "1"}, r.Keys())
}

func TestReceiver_KeysIsACopy(t *testing.T) {
	r := startReceiver(t, transport.FramingNewline)
	send(t, r.Addr(), transport.FramingNewline, `{"a":"1"}`)
	require.Eventually(t, func() bool { return r.Payloads() == 1 }, 2*time.Second, 5*time.Millisecond)

	keys := r.Keys()
	keys["a"] = "changed"
	assert.Equal(t, "1", r.Keys()["a"])
}

func TestReceiver_ClosedConnectionsReleaseGoroutines(t *testing.T) {
	r := startReceiver(t, transport.FramingNone)
	before := runtime.NumGoroutine()

	const clients = 200
	for i := 0; i < clients; i++ {
		send(t, r.Addr(), transport.FramingNone, `{"a":"b"}`)
	}

	require.Eventually(t, func() bool { return r.Payloads() == clients }, 5*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+2
	}, 5*time.Second, 10*time.Millisecond, "connection goroutines outlived their connections")
}
