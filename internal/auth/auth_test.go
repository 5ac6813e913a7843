package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investment-ledger/internal/domain"
)

func TestSignAndVerify(t *testing.T) {
	token, err := Sign("secret", "user-1", "user@example.com", time.Hour)
	require.NoError(t, err)

	actor, err := NewVerifier("secret").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", actor.UserID)
	assert.Equal(t, "user@example.com", actor.Email)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := Sign("secret", "user-1", "", time.Hour)
	require.NoError(t, err)

	_, err = NewVerifier("other").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	token, err := Sign("secret", "user-1", "", -time.Minute)
	require.NoError(t, err)

	_, err = NewVerifier("secret").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequiresSubject(t *testing.T) {
	token, err := Sign("secret", "", "", time.Hour)
	require.NoError(t, err)

	_, err = NewVerifier("secret").Verify(token)
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestVerifyRejectsNonHMAC(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewVerifier("secret").Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFrom(context.Background())
	assert.False(t, ok)

	ctx := WithActor(context.Background(), domain.Actor{UserID: "u"})
	actor, ok := ActorFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "u", actor.UserID)
}
