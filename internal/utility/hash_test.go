package utility

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken("")
	require.NoError(t, err)

	// 32 bytes base64 không padding = 43 ký tự
	assert.Len(t, token, 43)
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")
	assert.NotContains(t, token, "=")

	other, err := GenerateToken("")
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestGenerateTokenPrefix(t *testing.T) {
	token, err := GenerateToken("SRV")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "SRV"))
	assert.Len(t, token, 3+43)
}

func TestGenerateShortCode(t *testing.T) {
	for _, length := range []int{1, 4, 14} {
		code, err := GenerateShortCode(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
		assert.NotContains(t, code, "+")
		assert.NotContains(t, code, "/")
		assert.NotContains(t, code, "=")
	}
}

func TestHashAuthToken(t *testing.T) {
	key := []byte("khoá-test")

	h1 := HashAuthToken("token-abc", key)
	h2 := HashAuthToken("token-abc", key)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, HashAuthToken("token-xyz", key))
	assert.NotEqual(t, h1, HashAuthToken("token-abc", []byte("khoá-khác")))
	assert.NotEqual(t, "token-abc", h1)
}

func TestHashVerifyPassword(t *testing.T) {
	hashed, err := HashPassword("mật-khẩu-rất-dài-" + strings.Repeat("x", 100))
	require.NoError(t, err)

	// SHA256 trước bcrypt nên password > 72 bytes vẫn phân biệt được
	assert.True(t, VerifyPassword("mật-khẩu-rất-dài-"+strings.Repeat("x", 100), hashed))
	assert.False(t, VerifyPassword("mật-khẩu-rất-dài-"+strings.Repeat("x", 99)+"z", hashed))
	assert.False(t, VerifyPassword("sai", hashed))
}
