package domain

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// BCryptHasher is a PasswordHasher backed by bcrypt.
type BCryptHasher struct {
	Cost int
}

func NewBCryptHasher(cost int) BCryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return BCryptHasher{Cost: cost}
}

func (h BCryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify compares in constant time relative to the hash cost.
func (h BCryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
