package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_ProducesBcrypt(t *testing.T) {
	hash, err := HashPassword("secret123")

	assert.NoError(t, err)
	assert.Equal(t, FormatBcrypt, DetectHashFormat(hash))
}

func TestHashPassword_EmptyRejected(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestDetectHashFormat(t *testing.T) {
	tests := []struct {
		name string
		hash string
		want HashFormat
	}{
		{"bcrypt 2a", "$2a$12$abcdefghijklmnopqrstuv", FormatBcrypt},
		{"bcrypt 2b", "$2b$12$abcdefghijklmnopqrstuv", FormatBcrypt},
		{"legacy sha256", LegacyHash("secret123"), FormatLegacySHA256},
		{"empty", "", FormatUnknown},
		{"64 chars non-hex", "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", FormatUnknown},
		{"garbage", "plaintext", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectHashFormat(tt.hash))
		})
	}
}

func TestVerifyPassword_Bcrypt(t *testing.T) {
	hash, err := HashPassword("secret123")
	assert.NoError(t, err)

	needsUpgrade, err := VerifyPassword(hash, "secret123")
	assert.NoError(t, err)
	assert.False(t, needsUpgrade)

	_, err = VerifyPassword(hash, "wrong-password")
	assert.ErrorIs(t, err, bcrypt.ErrMismatchedHashAndPassword)
}

func TestVerifyPassword_LegacyMatchFlagsUpgrade(t *testing.T) {
	legacy := LegacyHash("secret123")

	needsUpgrade, err := VerifyPassword(legacy, "secret123")
	assert.NoError(t, err)
	assert.True(t, needsUpgrade)
}

func TestVerifyPassword_LegacyMismatch(t *testing.T) {
	legacy := LegacyHash("secret123")

	needsUpgrade, err := VerifyPassword(legacy, "wrong-password")
	assert.ErrorIs(t, err, bcrypt.ErrMismatchedHashAndPassword)
	assert.False(t, needsUpgrade)
}

func TestVerifyPassword_UnknownFormat(t *testing.T) {
	_, err := VerifyPassword("not-a-hash", "secret123")
	assert.ErrorIs(t, err, ErrUnknownHashFormat)
}

func TestGenerateSessionToken_UniqueAndOpaque(t *testing.T) {
	a, err := GenerateSessionToken()
	assert.NoError(t, err)
	b, err := GenerateSessionToken()
	assert.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), 40)
}

func TestValidatePassword_Minimums(t *testing.T) {
	assert.Error(t, ValidatePassword("short", MinPasswordLenSignup))
	assert.NoError(t, ValidatePassword("longenough", MinPasswordLenSignup))

	// Admin-created accounts accept shorter passwords; asymmetry preserved.
	assert.NoError(t, ValidatePassword("six123", MinPasswordLenAdmin))
	assert.Error(t, ValidatePassword("six12", MinPasswordLenAdmin))
}
