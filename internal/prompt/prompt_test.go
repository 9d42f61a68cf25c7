package prompt

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thruflo/inject/internal/logging"
)

func pipeWith(t *testing.T, content string) *os.File {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	t.Cleanup(func() { r.Close() })
	return r
}

func TestTerminalPrompter_Terminal(t *testing.T) {
	in := pipeWith(t, "")
	var out bytes.Buffer

	p := NewTerminalPrompter(in, &out, logging.Discard())
	p.isTerminal = func(int) bool { return true }
	p.readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }

	got, err := p.ReadSecret("Inject Key [addrA]:")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
	assert.Equal(t, "Inject Key [addrA]:\n", out.String())
}

func TestTerminalPrompter_TerminalError(t *testing.T) {
	in := pipeWith(t, "")
	var out bytes.Buffer

	p := NewTerminalPrompter(in, &out, logging.Discard())
	p.isTerminal = func(int) bool { return true }
	p.readPassword = func(int) ([]byte, error) { return nil, errors.New("interrupted") }

	_, err := p.ReadSecret("Inject Key [addrA]:")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")
}

func TestTerminalPrompter_PipedLines(t *testing.T) {
	in := pipeWith(t, "first\r\nsecond\nlast")
	var out bytes.Buffer

	p := NewTerminalPrompter(in, &out, logging.Discard())
	p.isTerminal = func(int) bool { return false }

	for _, want := range []string{"first", "second", "last"} {
		got, err := p.ReadSecret("label:")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := p.ReadSecret("label:")
	assert.ErrorIs(t, err, ErrNoInput)
}
