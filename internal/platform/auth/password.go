package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword produces a storable secret for a plaintext password.
//
// The plaintext is first reduced to a SHA-256 hex digest and the digest is
// what gets bcrypt-hashed. bcrypt only considers the first 72 bytes of its
// input; pre-digesting gives it a fixed 64-byte input no matter how long the
// original password is.
func HashPassword(plaintext string) (string, error) {
	digest := sha256.Sum256([]byte(plaintext))
	hashed, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(digest[:])), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plaintext matches the stored secret.
//
// The pre-digested scheme is tried first. On mismatch the plaintext is
// compared directly, which keeps secrets created before pre-digesting was
// introduced verifiable. Errors from the fallback (including bcrypt's
// over-length input error) are treated as "no match".
func VerifyPassword(plaintext, secret string) bool {
	digest := sha256.Sum256([]byte(plaintext))
	if bcrypt.CompareHashAndPassword([]byte(secret), []byte(hex.EncodeToString(digest[:]))) == nil {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(secret), []byte(plaintext)) == nil
}
