package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ryegate/pkg/domain"
	dErrors "ryegate/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	service := NewJWTService("test-signing-key", "ryegate-test")

	token, err := service.GenerateToken("0xalice", time.Hour)
	require.NoError(t, err)

	addr, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Address("0xalice"), addr)
}

func TestValidateToken(t *testing.T) {
	service := NewJWTService("test-signing-key", "ryegate-test")

	t.Run("expired token", func(t *testing.T) {
		token, err := service.GenerateToken("0xalice", -time.Minute)
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.Equal(t, "token has expired", dErrors.MessageOf(err))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewJWTService("another-key", "ryegate-test")
		token, err := other.GenerateToken("0xalice", time.Hour)
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := service.ValidateToken("not-a-token")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
