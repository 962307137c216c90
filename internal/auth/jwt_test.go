package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardnomad/guardnomad/internal/auth"
)

const testSecret = "super-secret-signing-key"

func signToken(t *testing.T, secret string, claims auth.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() auth.Claims {
	return auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Audience:  jwt.ClaimStrings{auth.DefaultAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email: "traveler@example.com",
		Role:  "authenticated",
	}
}

func TestVerify_ValidToken(t *testing.T) {
	verifier := auth.NewVerifier(auth.VerifierConfig{Secret: testSecret})
	token := signToken(t, testSecret, validClaims())

	claims, err := verifier.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, "traveler@example.com", claims.Email)
	assert.Equal(t, "authenticated", claims.Role)
}

func TestVerify_ExpiredToken(t *testing.T) {
	verifier := auth.NewVerifier(auth.VerifierConfig{Secret: testSecret})

	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	token := signToken(t, testSecret, claims)

	_, err := verifier.Verify(token)
	assert.ErrorIs(t, err, auth.ErrAccessTokenExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	verifier := auth.NewVerifier(auth.VerifierConfig{Secret: testSecret})
	token := signToken(t, "a-different-secret", validClaims())

	_, err := verifier.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestVerify_WrongAudience(t *testing.T) {
	verifier := auth.NewVerifier(auth.VerifierConfig{Secret: testSecret})

	claims := validClaims()
	claims.Audience = jwt.ClaimStrings{"service_role"}
	token := signToken(t, testSecret, claims)

	_, err := verifier.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestVerify_MissingExpiry(t *testing.T) {
	verifier := auth.NewVerifier(auth.VerifierConfig{Secret: testSecret})

	claims := validClaims()
	claims.ExpiresAt = nil
	token := signToken(t, testSecret, claims)

	_, err := verifier.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestVerify_MalformedTokens(t *testing.T) {
	verifier := auth.NewVerifier(auth.VerifierConfig{Secret: testSecret})

	for _, token := range []string{
		"",
		"not-a-token",
		"a.b",
		"eyJhbGciOiJIUzI1NiJ9.e30.invalid",
	} {
		_, err := verifier.Verify(token)
		assert.ErrorIs(t, err, auth.ErrInvalidAccessToken, token)
	}
}

func TestVerify_CustomAudience(t *testing.T) {
	verifier := auth.NewVerifier(auth.VerifierConfig{Secret: testSecret, Audience: "internal"})

	claims := validClaims()
	claims.Audience = jwt.ClaimStrings{"internal"}
	token := signToken(t, testSecret, claims)

	_, err := verifier.Verify(token)
	assert.NoError(t, err)
}
