package imaging

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the content digest of raw image bytes, used for
// duplicate suppression within one upload batch. Identical bytes always
// produce identical fingerprints; this is a dedup heuristic, not a
// security boundary.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
