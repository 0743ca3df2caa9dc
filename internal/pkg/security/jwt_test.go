package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "Anna", []string{"ADMIN"})
	require.NoError(t, err)

	t.Run("签发后可验证并还原身份", func(t *testing.T) {
		claims, err := ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), claims.UserID)
		assert.Equal(t, "Anna", claims.Name)
		assert.Equal(t, []string{"ADMIN"}, claims.Roles)
		assert.Equal(t, "Crewboard", claims.Issuer)
	})

	t.Run("篡改后验证失败", func(t *testing.T) {
		_, err := ValidateToken(token + "x")
		assert.Error(t, err)
	})

	t.Run("签名可单独提取", func(t *testing.T) {
		sig, err := ExtractSignature(token)
		require.NoError(t, err)
		assert.NotEmpty(t, sig)

		_, err = ExtractSignature("not-a-token")
		assert.Error(t, err)
	})
}
