package auth

import (
	"errors"
	"unicode/utf8"

	"github.com/clipnest/backend/apperr"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration and
// on password change.
const MinPasswordLength = 8

// ValidatePassword checks the password policy.
func ValidatePassword(plain string) error {
	if utf8.RuneCountInString(plain) < MinPasswordLength {
		return apperr.InvalidArgumentf("password must be at least %d characters", MinPasswordLength)
	}
	if len(plain) > 72 {
		return apperr.InvalidArgumentf("password must be at most 72 bytes")
	}
	return nil
}

// HashPassword returns a salted bcrypt hash of plain.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.InvalidArgumentf("password must be at most 72 bytes")
	}
	if err != nil {
		return "", apperr.Internalf(err, "failed to hash password")
	}
	return string(hash), nil
}

// VerifyPassword reports whether plain matches storedHash.
func VerifyPassword(plain, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plain)) == nil
}
