package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier(t *testing.T) {
	v, err := NewJWTVerifier("test-secret")
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		tok, err := v.Issue("Mo@X.com", "Mo", time.Hour)
		require.NoError(t, err)

		id, err := v.Verify(context.Background(), tok)
		require.NoError(t, err)
		assert.Equal(t, "mo@x.com", id.Email)
		assert.Equal(t, "Mo", id.Name)
	})

	t.Run("expired token", func(t *testing.T) {
		tok, err := v.Issue("mo@x.com", "", -time.Minute)
		require.NoError(t, err)

		_, err = v.Verify(context.Background(), tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTVerifier("other-secret")
		require.NoError(t, err)
		tok, err := other.Issue("mo@x.com", "", time.Hour)
		require.NoError(t, err)

		_, err = v.Verify(context.Background(), tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing email claim", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = v.Verify(context.Background(), tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty secret rejected", func(t *testing.T) {
		_, err := NewJWTVerifier("")
		assert.Error(t, err)
	})
}
