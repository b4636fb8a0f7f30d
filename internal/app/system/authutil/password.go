// internal/app/system/authutil/password.go
package authutil

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Admin password constraints.
const (
	MinPasswordLength = 10
	MaxPasswordLength = 72 // bcrypt ignores bytes past 72
	BcryptCost        = 12
)

var (
	ErrPasswordTooShort = errors.New("admin password must be at least 10 characters")
	ErrPasswordTooLong  = errors.New("admin password must be at most 72 characters")
	ErrPasswordCommon   = errors.New("admin password is too common")
)

var commonPasswords = map[string]bool{
	"1234567890":   true,
	"password123":  true,
	"password1234": true,
	"qwertyuiop":   true,
	"adminadmin":   true,
	"admin12345":   true,
	"letmein123":   true,
	"welcome123":   true,
	"changeme123":  true,
	"iloveyou123":  true,
}

// ValidatePassword checks a plain-text admin password against the length and
// common-password rules. Configured bcrypt hashes are not checked.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if commonPasswords[strings.ToLower(password)] {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plain-text password with a bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsBcryptHash reports whether s looks like a bcrypt hash ($2a$, $2b$, $2y$).
func IsBcryptHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// MatchSecret compares a submitted password with the configured admin
// secret, which is either a bcrypt hash or plain text. Plain text is compared
// in constant time.
func MatchSecret(submitted, configured string) bool {
	if configured == "" {
		return false
	}
	if IsBcryptHash(configured) {
		return CheckPassword(submitted, configured)
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(configured)) == 1
}
