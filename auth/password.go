package auth

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// specialChars is the fixed set a password must draw one character from.
const specialChars = "@$&"

// ValidatePassword checks the password policy. Rules are checked in order and
// the first failing rule determines the returned message; an empty message
// means the password passed.
func ValidatePassword(password string) string {
	if len(password) < 8 {
		return "Password must be at least 8 characters long."
	}

	hasUpper := false
	hasDigit := false
	for _, ch := range password {
		if unicode.IsUpper(ch) {
			hasUpper = true
		}
		if unicode.IsDigit(ch) {
			hasDigit = true
		}
	}

	if !hasUpper {
		return "Password must contain at least one uppercase letter."
	}
	if !hasDigit {
		return "Password must contain at least one number."
	}
	if !strings.ContainsAny(password, specialChars) {
		return "Password must contain at least one special character (@, $, &)."
	}
	return ""
}

// HashPassword produces a one-way salted hash of the password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword verifies a candidate password against a stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
