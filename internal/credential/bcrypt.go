package credential

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input past this length; GenerateFromPassword rejects it.
const bcryptMaxSecret = 72

// Bcrypt hashes secrets with bcrypt at a fixed cost.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt algorithm. A zero cost means bcrypt.DefaultCost.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}
	return &Bcrypt{cost: cost}, nil
}

// Name implements Algorithm.
func (b *Bcrypt) Name() string { return AlgBcrypt }

// Hash implements Hasher.
func (b *Bcrypt) Hash(secret []byte) (Stored, error) {
	if len(secret) > bcryptMaxSecret {
		return "", ErrSecretTooLong
	}
	hash, err := bcrypt.GenerateFromPassword(secret, b.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrSecretTooLong
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return Stored(hash), nil
}

// Verify implements Hasher.
func (b *Bcrypt) Verify(secret []byte, stored Stored) bool {
	if !b.Recognizes(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), secret) == nil
}

// Recognizes implements Algorithm.
func (b *Bcrypt) Recognizes(stored Stored) bool {
	s := string(stored)
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// Current implements Algorithm.
func (b *Bcrypt) Current(stored Stored) bool {
	if !b.Recognizes(stored) {
		return false
	}
	cost, err := bcrypt.Cost([]byte(stored))
	return err == nil && cost == b.cost
}
