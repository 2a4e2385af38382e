// Package credential turns plain-text secrets into storable, self-describing
// hashes and checks secrets against them.
//
// A Stored value always carries what is needed to recompute it (algorithm,
// cost parameters and salt), so verification never depends on process
// configuration beyond which algorithms are registered. Nothing in this
// package can recover a secret from its Stored form.
package credential

import (
	"errors"
)

// Stored is the persisted text form of a hashed secret.
type Stored string

var (
	// ErrAlgorithmUnavailable is returned at construction time when the
	// configured algorithm is unknown or fails its self-test. Callers should
	// refuse to serve authentication requests.
	ErrAlgorithmUnavailable = errors.New("credential algorithm unavailable")
	// ErrSecretTooLong is returned by algorithms with an input limit (bcrypt).
	ErrSecretTooLong = errors.New("secret exceeds algorithm input limit")
)

// Hasher hashes secrets and verifies them against stored values.
//
// Verify reports false for any stored value it cannot parse; it never panics.
type Hasher interface {
	Hash(secret []byte) (Stored, error)
	Verify(secret []byte, stored Stored) bool
}

// Algorithm is a Hasher that can recognise its own output.
type Algorithm interface {
	Hasher
	// Name is the configuration name of the algorithm.
	Name() string
	// Recognizes reports whether stored looks like this algorithm's output.
	Recognizes(stored Stored) bool
	// Current reports whether stored was produced with this algorithm's
	// present parameters.
	Current(stored Stored) bool
}

// Algorithm names accepted by Config.Algorithm.
const (
	AlgArgon2id = "argon2id"
	AlgBcrypt   = "bcrypt"
	AlgSHA256   = "sha256"
)
