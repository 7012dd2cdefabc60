package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost         = 12
	SessionTokenLength = 32 // 256 bits

	// Public signup requires 8 characters, admin-created accounts only 6.
	// The asymmetry matches observed behavior and is pending a product
	// decision; do not unify silently.
	MinPasswordLenSignup = 8
	MinPasswordLenAdmin  = 6
	MaxPasswordLen       = 128
)

// HashFormat identifies which of the two supported storage formats a hash
// uses. Legacy hashes are upgraded to bcrypt on the next successful login.
type HashFormat int

const (
	FormatUnknown HashFormat = iota
	FormatBcrypt
	FormatLegacySHA256
)

var ErrUnknownHashFormat = errors.New("unrecognized password hash format")

// HashPassword hashes a password in the strong format.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// LegacyHash produces the legacy fast hash. Kept only so tests and data
// backfills can construct pre-migration fixtures; never used for new
// credentials.
func LegacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// DetectHashFormat classifies a stored hash. This is a closed variant
// check, not an open-ended try-several-functions loop.
func DetectHashFormat(hash string) HashFormat {
	if strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$") {
		return FormatBcrypt
	}
	if len(hash) == 64 {
		if _, err := hex.DecodeString(hash); err == nil {
			return FormatLegacySHA256
		}
	}
	return FormatUnknown
}

// VerifyPassword checks a password against a stored hash in either format.
// needsUpgrade is true when the password matched a legacy hash and should
// be re-hashed in the strong format.
func VerifyPassword(storedHash, password string) (needsUpgrade bool, err error) {
	switch DetectHashFormat(storedHash) {
	case FormatBcrypt:
		return false, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password))
	case FormatLegacySHA256:
		candidate := LegacyHash(password)
		if subtle.ConstantTimeCompare([]byte(storedHash), []byte(candidate)) != 1 {
			return false, bcrypt.ErrMismatchedHashAndPassword
		}
		return true, nil
	default:
		return false, ErrUnknownHashFormat
	}
}

// GenerateSessionToken returns an opaque random bearer token.
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, SessionTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// ValidatePassword enforces the minimum length for the given context.
func ValidatePassword(password string, minLen int) error {
	if len(password) < minLen {
		return fmt.Errorf("password must be at least %d characters", minLen)
	}
	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must be at most %d characters", MaxPasswordLen)
	}
	return nil
}
