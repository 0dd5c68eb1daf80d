// Package password wraps the one-way credential hashing used when seeding accounts.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher maps a plaintext credential to an opaque stored hash.
type Hasher interface {
	Hash(plain string) (string, error)
}

type Bcrypt struct {
	Cost int
}

func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{Cost: cost}
}

func (b *Bcrypt) Hash(plain string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plain), b.Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(out), nil
}

// HasherFunc adapts a plain function to Hasher.
type HasherFunc func(plain string) (string, error)

func (f HasherFunc) Hash(plain string) (string, error) { return f(plain) }
