package credentials

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/thruflo/inject/internal/logging"
)

// Prompter asks the operator for a secret without echoing it.
type Prompter interface {
	ReadSecret(label string) (string, error)
}

// PromptLabel returns the prompt shown for id.
func PromptLabel(id string) string {
	return "Inject Key [" + id + "]:"
}

// ReadIdentifiers reads one identifier per line from path. Surrounding
// whitespace is trimmed. Blank lines and lines starting with # are skipped.
// Duplicates are kept; SecretMap collapses them.
func ReadIdentifiers(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &StartupError{Path: path, Err: err}
	}
	defer file.Close()

	var ids []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, &StartupError{Path: path, Err: err}
	}

	return ids, nil
}

// Loader fills a SecretMap from an identifier file and the operator.
type Loader struct {
	Prompter Prompter
	Logger   *logging.Logger
}

// NewLoader creates a Loader. A nil logger uses the package default.
func NewLoader(p Prompter, logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.Default()
	}
	return &Loader{Prompter: p, Logger: logger}
}

// Load reads identifiers from path into m and, line by line, prompts for
// every identifier whose secret is still empty. A repeated line is asked
// again only if the earlier answer was empty, so calling Load again on a
// filled map never prompts. It returns the number of prompts issued.
func (l *Loader) Load(ctx context.Context, path string, m *SecretMap) (int, error) {
	ids, err := ReadIdentifiers(path)
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		if m.Ensure(id) {
			l.Logger.Debug("identifier loaded", "identifier", id)
		}
	}
	l.Logger.Info("credentials file loaded", "path", path, "identifiers", m.Len(), "lines", len(ids))

	prompts := 0
	for _, id := range ids {
		if secret, _ := m.Get(id); secret != "" {
			continue
		}
		if err := l.ask(ctx, id, m); err != nil {
			return prompts, err
		}
		prompts++
	}
	return prompts, nil
}

// Fill prompts once for every identifier in m with an empty secret and
// stores the answers verbatim. It returns the number of prompts issued.
func (l *Loader) Fill(ctx context.Context, m *SecretMap) (int, error) {
	prompts := 0
	for _, id := range m.Missing() {
		if err := l.ask(ctx, id, m); err != nil {
			return prompts, err
		}
		prompts++
	}
	return prompts, nil
}

func (l *Loader) ask(ctx context.Context, id string, m *SecretMap) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	secret, err := l.Prompter.ReadSecret(PromptLabel(id))
	if err != nil {
		return fmt.Errorf("failed to read secret for %s: %w", id, err)
	}

	m.Set(id, secret)
	if secret == "" {
		l.Logger.Warn("empty secret entered", "identifier", id)
		return nil
	}
	l.Logger.Info("secret captured", "identifier", id, "fingerprint", Fingerprint(secret))
	return nil
}
