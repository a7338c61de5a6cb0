package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const inviteTokenBytes = 20

// GenerateInviteToken produces the random hex token embedded in invite URLs.
func GenerateInviteToken() (string, error) {
	return randomHex(inviteTokenBytes)
}

// GenerateResetToken produces the raw password-reset token communicated
// out-of-band. Only its digest is persisted.
func GenerateResetToken() (string, error) {
	return randomHex(32)
}

// HashToken returns the hex-encoded sha256 digest stored for reset tokens.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// TokenDigestsEqual compares a stored digest with the digest of a presented
// raw token without leaking timing.
func TokenDigestsEqual(storedDigest, rawToken string) bool {
	return subtle.ConstantTimeCompare([]byte(storedDigest), []byte(HashToken(rawToken))) == 1
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
