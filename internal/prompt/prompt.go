// Package prompt reads secrets from the operator's terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/thruflo/inject/internal/logging"
)

// ErrNoInput is returned when stdin is closed before a secret is entered.
var ErrNoInput = errors.New("no input available")

// TerminalPrompter prints a label and reads a secret with echo disabled.
// When the input is not a terminal (piped secrets, CI) it reads a plain
// line instead and warns once.
type TerminalPrompter struct {
	in     *os.File
	out    io.Writer
	logger *logging.Logger

	reader *bufio.Reader
	warned bool

	isTerminal   func(fd int) bool
	readPassword func(fd int) ([]byte, error)
}

// NewTerminalPrompter creates a prompter reading from in and writing the
// label to out.
func NewTerminalPrompter(in *os.File, out io.Writer, logger *logging.Logger) *TerminalPrompter {
	if logger == nil {
		logger = logging.Default()
	}
	return &TerminalPrompter{
		in:           in,
		out:          out,
		logger:       logger,
		isTerminal:   term.IsTerminal,
		readPassword: term.ReadPassword,
	}
}

// Stdio returns a prompter bound to the process's stdin and stderr.
func Stdio(logger *logging.Logger) *TerminalPrompter {
	return NewTerminalPrompter(os.Stdin, os.Stderr, logger)
}

// ReadSecret prints label and returns what the operator typed.
func (p *TerminalPrompter) ReadSecret(label string) (string, error) {
	fmt.Fprint(p.out, label)

	fd := int(p.in.Fd())
	if p.isTerminal(fd) {
		secret, err := p.readPassword(fd)
		fmt.Fprintln(p.out) // newline after hidden input
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return string(secret), nil
	}

	if !p.warned {
		p.logger.Warn("stdin is not a terminal, reading secrets as plain lines")
		p.warned = true
	}
	if p.reader == nil {
		p.reader = bufio.NewReader(p.in)
	}
	line, err := p.reader.ReadString('\n')
	fmt.Fprintln(p.out)
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return "", ErrNoInput
		}
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}
