package testutil

import (
	"fmt"
	"sync"
)

// ScriptedPrompter answers prompts from fixed answers keyed by label. It
// records every label it was asked, for checking who got prompted and how
// often.
type ScriptedPrompter struct {
	mu      sync.Mutex
	answers map[string]string
	queued  map[string][]string
	labels  []string
}

// NewScriptedPrompter creates a prompter answering label -> secret.
func NewScriptedPrompter(answers map[string]string) *ScriptedPrompter {
	return &ScriptedPrompter{
		answers: answers,
		queued:  make(map[string][]string),
	}
}

// Queue makes the next prompts for label return answers in order before
// falling back to the fixed answer.
func (s *ScriptedPrompter) Queue(label string, answers ...string) *ScriptedPrompter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queued[label] = append(s.queued[label], answers...)
	return s
}

// ReadSecret returns the scripted answer for label.
func (s *ScriptedPrompter) ReadSecret(label string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.labels = append(s.labels, label)
	if q := s.queued[label]; len(q) > 0 {
		s.queued[label] = q[1:]
		return q[0], nil
	}
	answer, ok := s.answers[label]
	if !ok {
		return "", fmt.Errorf("no scripted answer for %q", label)
	}
	return answer, nil
}

// Labels returns the labels asked so far, in order.
func (s *ScriptedPrompter) Labels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.labels...)
}

// Calls returns how many prompts were issued.
func (s *ScriptedPrompter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.labels)
}
