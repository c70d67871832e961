package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-test-secret-that-is-long-enough-for-hs256"

func TestOperatorTokens_RoundTrip(t *testing.T) {
	tokens := NewOperatorTokens(testSecret, time.Hour)

	signed, err := tokens.Issue("op-1", RoleOperator)
	require.NoError(t, err)

	claims, err := tokens.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "op-1", claims.UserID)
	assert.Equal(t, RoleOperator, claims.Role)
}

func TestOperatorTokens_WrongSecret(t *testing.T) {
	signed, err := NewOperatorTokens("another-secret-of-sufficient-length!!", time.Hour).Issue("op-1", RoleOperator)
	require.NoError(t, err)

	_, err = NewOperatorTokens(testSecret, time.Hour).Validate(signed)
	assert.Error(t, err)
}

func TestOperatorTokens_Expired(t *testing.T) {
	tokens := NewOperatorTokens(testSecret, time.Minute)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issued }

	signed, err := tokens.Issue("op-1", RoleOperator)
	require.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = tokens.Validate(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestOperatorTokens_RejectsNonHMAC(t *testing.T) {
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &OperatorClaims{
		UserID: "op-1",
		Role:   RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewOperatorTokens(testSecret, time.Hour).Validate(unsigned)
	assert.Error(t, err)
}

func TestOperatorTokens_RequiresUserID(t *testing.T) {
	tokens := NewOperatorTokens(testSecret, time.Hour)
	signed, err := tokens.Issue("", RoleOperator)
	require.NoError(t, err)

	_, err = tokens.Validate(signed)
	assert.Error(t, err)
}

func TestOperatorTokens_ForeignIssuer(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &OperatorClaims{
		UserID: "op-1",
		Role:   RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "user-service",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewOperatorTokens(testSecret, time.Hour).Validate(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}
