package credential

import (
	"fmt"
	"io"
)

// Config selects the primary algorithm and its parameters.
type Config struct {
	Algorithm     string       `mapstructure:"algorithm"`
	Argon2        Argon2Params `mapstructure:"argon2"`
	MaxConcurrent int          `mapstructure:"max_concurrent"`
	BcryptCost    int          `mapstructure:"bcrypt_cost"`
	// AcceptLegacy keeps unsalted SHA-256 values verifiable so they can be
	// upgraded on the next successful login.
	AcceptLegacy bool `mapstructure:"accept_legacy"`
}

// DefaultConfig returns argon2id with default parameters and legacy
// verification enabled.
func DefaultConfig() Config {
	return Config{
		Algorithm:     AlgArgon2id,
		Argon2:        DefaultArgon2Params(),
		MaxConcurrent: 4,
		BcryptCost:    0,
		AcceptLegacy:  true,
	}
}

// Option tweaks construction of a Multi.
type Option func(*options)

type options struct {
	salt io.Reader
}

// WithSaltSource replaces crypto/rand as the argon2id salt source.
func WithSaltSource(r io.Reader) Option {
	return func(o *options) { o.salt = r }
}

// Multi hashes with one primary algorithm and verifies values produced by
// any registered algorithm.
type Multi struct {
	primary    Algorithm
	algorithms []Algorithm
	dummy      Stored
}

var _ Hasher = (*Multi)(nil)

// probe secrets for the startup self-test.
var (
	probeSecret = []byte("credential-self-test")
	probeWrong  = []byte("credential-self-test!")
)

// New builds a Multi from cfg. It returns an error wrapping
// ErrAlgorithmUnavailable when the primary algorithm cannot be built or does
// not pass a hash/verify round trip.
func New(cfg Config, opts ...Option) (*Multi, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	argon, err := NewArgon2id(cfg.Argon2, o.salt, cfg.MaxConcurrent)
	if err != nil && cfg.Algorithm == AlgArgon2id {
		return nil, fmt.Errorf("%w: %s: %v", ErrAlgorithmUnavailable, cfg.Algorithm, err)
	}
	bc, err := NewBcrypt(cfg.BcryptCost)
	if err != nil && cfg.Algorithm == AlgBcrypt {
		return nil, fmt.Errorf("%w: %s: %v", ErrAlgorithmUnavailable, cfg.Algorithm, err)
	}
	legacy := NewSHA256()

	m := &Multi{}
	switch cfg.Algorithm {
	case AlgArgon2id:
		m.primary = argon
	case AlgBcrypt:
		m.primary = bc
	case AlgSHA256:
		m.primary = legacy
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", ErrAlgorithmUnavailable, cfg.Algorithm)
	}

	m.algorithms = append(m.algorithms, m.primary)
	if argon != nil && m.primary.Name() != AlgArgon2id {
		m.algorithms = append(m.algorithms, argon)
	}
	if bc != nil && m.primary.Name() != AlgBcrypt {
		m.algorithms = append(m.algorithms, bc)
	}
	if cfg.AcceptLegacy && m.primary.Name() != AlgSHA256 {
		m.algorithms = append(m.algorithms, legacy)
	}

	if err := m.selfTest(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAlgorithmUnavailable, cfg.Algorithm, err)
	}
	return m, nil
}

func (m *Multi) selfTest() error {
	stored, err := m.primary.Hash(probeSecret)
	if err != nil {
		return err
	}
	if !m.primary.Verify(probeSecret, stored) {
		return fmt.Errorf("round trip failed")
	}
	if m.primary.Verify(probeWrong, stored) {
		return fmt.Errorf("accepted wrong secret")
	}
	m.dummy = stored
	return nil
}

// Primary returns the name of the algorithm used by Hash.
func (m *Multi) Primary() string { return m.primary.Name() }

// Hash implements Hasher with the primary algorithm.
func (m *Multi) Hash(secret []byte) (Stored, error) {
	return m.primary.Hash(secret)
}

// Verify implements Hasher. Every call costs at least one primary
// verification: values of other schemes and unrecognised values pay for a
// dummy one so their timing matches the primary path.
func (m *Multi) Verify(secret []byte, stored Stored) bool {
	for _, alg := range m.algorithms {
		if alg.Recognizes(stored) {
			ok := alg.Verify(secret, stored)
			if alg != m.primary {
				m.VerifyDummy(secret)
			}
			return ok
		}
	}
	m.VerifyDummy(secret)
	return false
}

// VerifyDummy performs a primary verification against a throwaway value.
// Use it when there is no stored value to check, e.g. an unknown user.
func (m *Multi) VerifyDummy(secret []byte) {
	_ = m.primary.Verify(secret, m.dummy)
}

// NeedsRehash reports whether stored should be replaced by a fresh primary
// hash.
func (m *Multi) NeedsRehash(stored Stored) bool {
	return !m.primary.Current(stored)
}
