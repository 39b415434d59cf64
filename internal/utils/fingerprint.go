package utils

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Fingerprint derives the deterministic one-way correlation token for an
// entry id: a 10-byte SHAKE-128 digest, hex encoded. The token is used only
// for uncorrelated-but-stable lookup across the two ledgers, not secrecy.
func Fingerprint(id string) string {
	digest := make([]byte, 10)
	sha3.ShakeSum128(digest, []byte(id))
	return hex.EncodeToString(digest)
}

// importRefPrefix marks import references produced by this tool. The full
// canonical wire format is "s||<fingerprint>-0": two "||"-delimited
// segments, the second being the fingerprint plus a two-character iteration
// suffix. Both production and parsing must use this exact form; counterpart
// correlation breaks otherwise.
const (
	importRefPrefix    = "s||"
	importRefIteration = "-0"
)

// ImportRefFromFingerprint renders the canonical import reference for a
// fingerprint token.
func ImportRefFromFingerprint(token string) string {
	return importRefPrefix + token + importRefIteration
}

// FingerprintFromImportRef recovers the fingerprint token from an import
// reference, returning false when the reference is absent or not in the
// canonical format.
func FingerprintFromImportRef(ref string) (string, bool) {
	if !strings.Contains(ref, "||") {
		return "", false
	}
	segments := strings.Split(ref, "||")
	if len(segments) < 2 || len(segments[1]) <= 2 {
		return "", false
	}
	return segments[1][:len(segments[1])-2], true
}
