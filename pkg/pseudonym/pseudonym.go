// Package pseudonym derives stable, non-reversible handles for user
// identifiers so they can appear in logs, cache keys and the turn log.
package pseudonym

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Anonymous is returned for an empty identifier.
const Anonymous = "anon"

// UserID hashes id with BLAKE2b-256 and hex-encodes the first 8 bytes.
func UserID(id string) string {
	if id == "" {
		return Anonymous
	}
	sum := blake2b.Sum256([]byte(id))
	return hex.EncodeToString(sum[:8])
}
