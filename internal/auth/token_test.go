package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("s3cret", time.Hour)
	token, err := issuer.Issue(&Customer{ID: "c1", Email: "a@b.in", FullName: "Asha", Role: RoleAdmin})
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "c1", claims.CustomerID())
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "Asha", claims.Name)
}

func TestTokenRejected(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("s3cret", time.Hour)
	c := &Customer{ID: "c1", Email: "a@b.in", Role: RoleCustomer}

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewTokenIssuer("other", time.Hour).Issue(c)
		require.NoError(t, err)
		_, err = issuer.Parse(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewTokenIssuer("s3cret", time.Minute)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := old.Issue(c)
		require.NoError(t, err)
		_, err = issuer.Parse(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "c1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.Parse(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not.a.token")
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}
