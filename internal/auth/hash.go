package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Passwords are hashed in two steps: a hex SHA-256 digest first, then
// bcrypt over that fixed-size string. The prehash keeps arbitrarily long
// passwords inside bcrypt's 72-byte input limit.

// HashPassword returns the bcrypt hash of the password's SHA-256 digest.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(sha256Hex(plain)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether plain matches the stored hash.
func CheckPassword(storedHash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(sha256Hex(plain))) == nil
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
