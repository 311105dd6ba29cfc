package auth

import (
	"encoding/hex"

	"github.com/minio/sha256-simd"
)

// Fingerprint returns a short, non-reversible identifier for a passkey,
// suitable for log correlation. Passkeys themselves must never be logged in
// the clear.
func Fingerprint(passkey string) string {
	sum := sha256.Sum256([]byte(passkey))
	return hex.EncodeToString(sum[:8])
}
