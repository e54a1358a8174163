package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Run("generates 64 character hex string", func(t *testing.T) {
		token, err := GenerateToken()
		require.NoError(t, err)
		assert.Len(t, token, 64)
	})

	t.Run("generates unique tokens", func(t *testing.T) {
		token1, _ := GenerateToken()
		token2, _ := GenerateToken()
		assert.NotEqual(t, token1, token2)
	})

	t.Run("generates valid hex", func(t *testing.T) {
		token, _ := GenerateToken()
		for _, c := range token {
			assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'))
		}
	})
}

func TestGenerateTemporaryPassword(t *testing.T) {
	pw, err := GenerateTemporaryPassword(12)
	require.NoError(t, err)
	assert.Len(t, pw, 24)
}

func TestHmacSHA256(t *testing.T) {
	t.Run("returns 64 character hex string", func(t *testing.T) {
		assert.Len(t, HmacSHA256("secret", "data"), 64)
	})

	t.Run("same inputs produce same result", func(t *testing.T) {
		assert.Equal(t, HmacSHA256("secret", "data"), HmacSHA256("secret", "data"))
	})

	t.Run("different secrets produce different results", func(t *testing.T) {
		assert.NotEqual(t, HmacSHA256("secret-1", "data"), HmacSHA256("secret-2", "data"))
	})
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("abc", "abc"))
	assert.False(t, ConstantTimeEqual("abc", "abd"))
	assert.False(t, ConstantTimeEqual("abc", "ab"))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	t.Run("hash is bcrypt", func(t *testing.T) {
		assert.Contains(t, hash, "$2a$")
		assert.NotEqual(t, "s3cret!", hash)
	})

	t.Run("correct password verifies", func(t *testing.T) {
		assert.True(t, CheckPasswordHash("s3cret!", hash))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		assert.False(t, CheckPasswordHash("wrong", hash))
	})

	t.Run("garbage hash fails", func(t *testing.T) {
		assert.False(t, CheckPasswordHash("s3cret!", "not-a-hash"))
	})
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("s3cret!"))
	assert.NoError(t, ValidatePassword(strings.Repeat("a", 72)))
	assert.NoError(t, ValidatePassword("äöüäöü"))

	assert.Error(t, ValidatePassword("12345"))
	assert.Error(t, ValidatePassword("äöü"))
	assert.Error(t, ValidatePassword(strings.Repeat("a", 73)))
	assert.Error(t, ValidatePassword(strings.Repeat("ä", 40)))
}

func TestMaskIdentifier(t *testing.T) {
	assert.Equal(t, "***", MaskIdentifier("ab"))
	assert.Equal(t, "jan***", MaskIdentifier("jane_d"))
}
