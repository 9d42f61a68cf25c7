package credentials

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a short hex digest of secret, safe to log.
//
// It hashes with BLAKE2b-256 and truncates to 6 bytes (12 hex chars). An
// empty secret fingerprints as "empty".
func Fingerprint(secret string) string {
	if secret == "" {
		return "empty"
	}
	sum := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:6])
}
