package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost stays at the library default. The comparison is intentionally
// slow; it dominates login latency and that is the point.
const bcryptCost = bcrypt.DefaultCost

// HashPassword derives the stored credential hash for an administrator.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("auth: password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks a login attempt against the stored hash in constant
// time. A non-nil error means the password does not match.
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return errors.New("auth: password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
