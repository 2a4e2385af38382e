package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2idPrefix = "$argon2id$"

// Parameter bounds for configuration and for parsed stored values.
const (
	maxArgon2Memory      = 1 << 20 // KiB, 1 GiB
	maxArgon2Iterations  = 64
	maxArgon2Parallelism = 64
	maxArgon2KeyLength   = 128
	minArgon2KeyLength   = 16
	minArgon2SaltLength  = 8
	maxArgon2SaltLength  = 64
)

// storedMemoryFactor caps the memory a stored value may request at this
// multiple of the configured memory.
const storedMemoryFactor = 4

// Argon2Params are the argon2id cost parameters.
type Argon2Params struct {
	Memory      uint32 `mapstructure:"memory"`      // KiB
	Iterations  uint32 `mapstructure:"iterations"`  // time cost
	Parallelism uint8  `mapstructure:"parallelism"` // lanes
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

// DefaultArgon2Params returns the parameters used when none are configured.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (p Argon2Params) validate() error {
	switch {
	case p.Memory == 0 || p.Memory > maxArgon2Memory:
		return fmt.Errorf("argon2 memory %d out of range", p.Memory)
	case p.Iterations == 0 || p.Iterations > maxArgon2Iterations:
		return fmt.Errorf("argon2 iterations %d out of range", p.Iterations)
	case p.Parallelism == 0 || p.Parallelism > maxArgon2Parallelism:
		return fmt.Errorf("argon2 parallelism %d out of range", p.Parallelism)
	case p.SaltLength < minArgon2SaltLength || p.SaltLength > maxArgon2SaltLength:
		return fmt.Errorf("argon2 salt length %d out of range", p.SaltLength)
	case p.KeyLength < minArgon2KeyLength || p.KeyLength > maxArgon2KeyLength:
		return fmt.Errorf("argon2 key length %d out of range", p.KeyLength)
	}
	return nil
}

// Argon2id hashes secrets with argon2id and a random per-secret salt.
type Argon2id struct {
	params Argon2Params
	rand   io.Reader
	sem    chan struct{}
}

// NewArgon2id returns an argon2id algorithm. salt may be nil to use
// crypto/rand. maxConcurrent bounds simultaneous derivations; 0 disables
// the limit.
func NewArgon2id(params Argon2Params, salt io.Reader, maxConcurrent int) (*Argon2id, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if salt == nil {
		salt = rand.Reader
	}
	a := &Argon2id{params: params, rand: salt}
	if maxConcurrent > 0 {
		a.sem = make(chan struct{}, maxConcurrent)
	}
	return a, nil
}

// Name implements Algorithm.
func (a *Argon2id) Name() string { return AlgArgon2id }

// Hash implements Hasher.
func (a *Argon2id) Hash(secret []byte) (Stored, error) {
	salt := make([]byte, a.params.SaltLength)
	if _, err := io.ReadFull(a.rand, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := a.derive(secret, salt, a.params.Iterations, a.params.Memory, a.params.Parallelism, a.params.KeyLength)

	return Stored(fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.params.Memory,
		a.params.Iterations,
		a.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)), nil
}

// Verify implements Hasher.
func (a *Argon2id) Verify(secret []byte, stored Stored) bool {
	dec, ok := a.decode(stored)
	if !ok {
		return false
	}
	computed := a.derive(secret, dec.salt, dec.params.Iterations, dec.params.Memory, dec.params.Parallelism, uint32(len(dec.key)))
	return subtle.ConstantTimeCompare(dec.key, computed) == 1
}

// Recognizes implements Algorithm.
func (a *Argon2id) Recognizes(stored Stored) bool {
	return strings.HasPrefix(string(stored), argon2idPrefix)
}

// Current implements Algorithm.
func (a *Argon2id) Current(stored Stored) bool {
	dec, ok := a.decode(stored)
	if !ok {
		return false
	}
	return dec.params.Memory == a.params.Memory &&
		dec.params.Iterations == a.params.Iterations &&
		dec.params.Parallelism == a.params.Parallelism &&
		uint32(len(dec.salt)) == a.params.SaltLength &&
		uint32(len(dec.key)) == a.params.KeyLength
}

func (a *Argon2id) derive(secret, salt []byte, t, m uint32, p uint8, keyLen uint32) []byte {
	if a.sem != nil {
		a.sem <- struct{}{}
		defer func() { <-a.sem }()
	}
	return argon2.IDKey(secret, salt, t, m, p, keyLen)
}

// decode is decodeArgon2id limited to what this instance is willing to
// derive. A stored value asking for more than storedMemoryFactor times the
// configured memory is malformed.
func (a *Argon2id) decode(stored Stored) (argon2idValue, bool) {
	dec, ok := decodeArgon2id(stored)
	if !ok {
		return dec, false
	}
	limit := uint64(a.params.Memory) * storedMemoryFactor
	if uint64(dec.params.Memory) > limit {
		return dec, false
	}
	return dec, true
}

type argon2idValue struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

// decodeArgon2id parses a PHC string. ok is false for anything malformed or
// outside the accepted parameter bounds.
func decodeArgon2id(stored Stored) (argon2idValue, bool) {
	var v argon2idValue

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(string(stored), "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != AlgArgon2id {
		return v, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return v, false
	}
	if parts[2] != fmt.Sprintf("v=%d", version) {
		return v, false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return v, false
	}
	// Sscanf stops at the last verb; reject trailing or non-canonical text.
	if parts[3] != fmt.Sprintf("m=%d,t=%d,p=%d", memory, iterations, parallelism) {
		return v, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return v, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return v, false
	}

	v.params = Argon2Params{
		Memory:      memory,
		Iterations:  iterations,
		Parallelism: parallelism,
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(key)),
	}
	if err := v.params.validate(); err != nil {
		return v, false
	}
	v.salt = salt
	v.key = key
	return v, true
}
