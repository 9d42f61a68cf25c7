package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SampleCredentialsFile lists three wallets, one of them twice, plus a blank
// line and a comment.
const SampleCredentialsFile = `0x80c67432656d59144ceff962e8faf8926599bcf8
0xd7aa9ba6caac7b0436c91396f22ca5a7f31664fc

# cold wallet
0x8a700fdb6121a57c59736041d9aa21dfd8820660
0x80c67432656d59144ceff962e8faf8926599bcf8
`

// SampleAnswers returns prompt label -> secret for SampleCredentialsFile.
func SampleAnswers() map[string]string {
	return map[string]string{
		"Inject Key [0x80c67432656d59144ceff962e8faf8926599bcf8]:": "key-one",
		"Inject Key [0xd7aa9ba6caac7b0436c91396f22ca5a7f31664fc]:": "key-two",
		"Inject Key [0x8a700fdb6121a57c59736041d9aa21dfd8820660]:": "key-three",
	}
}

// WriteCredentialsFile writes content to a fresh file and returns its path.
func WriteCredentialsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
