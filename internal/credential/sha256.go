package credential

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// SHA256 is the unsalted single-digest scheme of the original desktop
// client: base64(sha256(secret)). It is kept so existing rows still verify;
// Multi never uses it as the primary algorithm unless configured to.
type SHA256 struct{}

// NewSHA256 returns the legacy digest algorithm.
func NewSHA256() *SHA256 { return &SHA256{} }

// Name implements Algorithm.
func (SHA256) Name() string { return AlgSHA256 }

// Hash implements Hasher. It cannot fail.
func (SHA256) Hash(secret []byte) (Stored, error) {
	sum := sha256.Sum256(secret)
	return Stored(base64.StdEncoding.EncodeToString(sum[:])), nil
}

// Verify implements Hasher.
func (s SHA256) Verify(secret []byte, stored Stored) bool {
	want, ok := decodeSHA256(stored)
	if !ok {
		return false
	}
	got := sha256.Sum256(secret)
	return subtle.ConstantTimeCompare(want, got[:]) == 1
}

// Recognizes implements Algorithm.
func (SHA256) Recognizes(stored Stored) bool {
	_, ok := decodeSHA256(stored)
	return ok
}

// Current implements Algorithm. The scheme has no parameters.
func (s SHA256) Current(stored Stored) bool { return s.Recognizes(stored) }

func decodeSHA256(stored Stored) ([]byte, bool) {
	if len(stored) != base64.StdEncoding.EncodedLen(sha256.Size) {
		return nil, false
	}
	b, err := base64.StdEncoding.DecodeString(string(stored))
	if err != nil || len(b) != sha256.Size {
		return nil, false
	}
	return b, true
}
