// Package security holds password hashing and one-time code helpers.
package security

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int
}

var _ ports.PasswordHasher = (*Hasher)(nil)

// NewHasher clamps cost into bcrypt's accepted range; zero means the
// library default.
func NewHasher(cost int) *Hasher {
	switch {
	case cost <= 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare returns nil when password matches hash.
func (h *Hasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
