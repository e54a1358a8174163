package util

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/soundwave-agency/agency-server/internal/config"
)

const tokenBytes = 32

func GenerateToken() (string, error) {
	return randomHex(tokenBytes)
}

// GenerateTemporaryPassword returns a random hex password of 2*n characters.
func GenerateTemporaryPassword(n int) (string, error) {
	return randomHex(n)
}

func randomHex(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func HmacSHA256(secret, data string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ValidatePassword checks the bounds a new password must meet. The minimum
// counts characters, the maximum counts bytes since bcrypt rejects longer input.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < config.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", config.MinPasswordLength)
	}
	if len(password) > config.MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes long", config.MaxPasswordBytes)
	}
	return nil
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// MaskIdentifier keeps enough of a login identifier to correlate audit
// events without writing it out in full.
func MaskIdentifier(identifier string) string {
	if len(identifier) <= 3 {
		return "***"
	}
	return identifier[:3] + "***"
}
