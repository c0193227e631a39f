package auth

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// specialChars is the set of characters accepted as "special" by the
// password policy.
const specialChars = `!@#$%^&*()_+-=[]{};:'",.<>/?\|`

// PolicyViolation describes why a password or username failed validation.
// It is a user-facing message, not an internal fault.
type PolicyViolation struct {
	Reason string
}

func (v *PolicyViolation) Error() string {
	return v.Reason
}

// HashPassword produces a salted bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether the password matches the stored hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidateUsername enforces the signup username rule.
func ValidateUsername(username string) error {
	if len(strings.TrimSpace(username)) < 3 {
		return &PolicyViolation{Reason: "username must be at least 3 characters"}
	}
	return nil
}

// ValidatePassword enforces the password policy: at least 8 characters with
// one uppercase, one lowercase, and one special character. Digits are
// recommended to users but not required.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return &PolicyViolation{Reason: "password must be at least 8 characters"}
	}

	var hasUpper, hasLower, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return &PolicyViolation{Reason: "password must contain an uppercase letter"}
	case !hasLower:
		return &PolicyViolation{Reason: "password must contain a lowercase letter"}
	case !hasSpecial:
		return &PolicyViolation{Reason: "password must contain a special character"}
	}

	return nil
}
