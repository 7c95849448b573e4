package token_test

import (
	"testing"
	"time"

	"github.com/infrawatch/auth-service/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCodec_SignAndVerify(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := token.NewCodec([]byte("secret"), fixedClock(now))

	signed, err := codec.Sign(token.AccessClaims("user-1", "Ana", "a@b.com", "admin", "PENDING"), time.Hour)
	require.NoError(t, err)

	claims, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "PENDING", claims.Status)
}

func TestCodec_RefreshClaimsCarrySessionID(t *testing.T) {
	codec := token.NewCodec([]byte("secret"), nil)

	signed, err := codec.Sign(token.RefreshClaims("user-1", "session-9"), time.Hour)
	require.NoError(t, err)

	claims, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "session-9", claims.SessionID())
}

func TestCodec_Expired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	signer := token.NewCodec([]byte("secret"), fixedClock(now))

	signed, err := signer.Sign(token.RefreshClaims("user-1", "session-9"), time.Hour)
	require.NoError(t, err)

	verifier := token.NewCodec([]byte("secret"), fixedClock(now.Add(2*time.Hour)))
	_, err = verifier.Verify(signed)
	assert.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestCodec_BadSignature(t *testing.T) {
	signer := token.NewCodec([]byte("secret"), nil)
	signed, err := signer.Sign(token.RefreshClaims("user-1", "session-9"), time.Hour)
	require.NoError(t, err)

	verifier := token.NewCodec([]byte("other-secret"), nil)
	_, err = verifier.Verify(signed)
	assert.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestCodec_Malformed(t *testing.T) {
	codec := token.NewCodec([]byte("secret"), nil)
	_, err := codec.Verify("not-a-token")
	assert.ErrorIs(t, err, token.ErrTokenMalformed)
}
