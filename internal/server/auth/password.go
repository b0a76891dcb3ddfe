package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const PasswordCost = 10

// dummyHash is compared against when the account does not exist, so that a
// login for an unknown email costs about as much as a wrong password.
var dummyHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOa6gVh9F8pM7yQp3lY0T8V3kx.s5p4Hy")

func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CheckPassword reports whether password matches hash. An empty hash is
// checked against a dummy value and never matches.
func CheckPassword(hash, password string) (bool, error) {
	h := []byte(hash)
	if hash == "" {
		h = dummyHash
	}

	err := bcrypt.CompareHashAndPassword(h, []byte(password))
	switch {
	case err == nil:
		return hash != "", nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
