package credentials

import (
	"bytes"
	"encoding/json"
)

// SecretMap maps identifiers to secrets and remembers insertion order so the
// encoded payload is stable across ticks.
type SecretMap struct {
	keys   []string
	values map[string]string
}

// NewSecretMap returns an empty map.
func NewSecretMap() *SecretMap {
	return &SecretMap{values: make(map[string]string)}
}

// Ensure adds id with an empty secret unless it is already present.
// It reports whether id was added.
func (m *SecretMap) Ensure(id string) bool {
	if _, ok := m.values[id]; ok {
		return false
	}
	m.keys = append(m.keys, id)
	m.values[id] = ""
	return true
}

// Set stores secret for id, adding id if needed.
func (m *SecretMap) Set(id, secret string) {
	m.Ensure(id)
	m.values[id] = secret
}

// Get returns the secret for id and whether id is present.
func (m *SecretMap) Get(id string) (string, bool) {
	v, ok := m.values[id]
	return v, ok
}

// Len returns the number of identifiers.
func (m *SecretMap) Len() int {
	return len(m.keys)
}

// Keys returns the identifiers in insertion order.
func (m *SecretMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Missing returns identifiers that still have an empty secret.
func (m *SecretMap) Missing() []string {
	var out []string
	for _, k := range m.keys {
		if m.values[k] == "" {
			out = append(out, k)
		}
	}
	return out
}

// MarshalJSON encodes the map as a flat JSON object with keys in insertion
// order.
func (m *SecretMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Snapshot returns the current wire payload for the map.
func (m *SecretMap) Snapshot() ([]byte, error) {
	return m.MarshalJSON()
}
