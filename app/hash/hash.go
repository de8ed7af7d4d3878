package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher is the credential-hashing collaborator injected into the account
// service. Plaintext passwords never leave this boundary in stored form.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

var _ Hasher = (*BcryptHasher)(nil)

// BcryptHasher hashes passwords with bcrypt at the default cost.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
