// Package auth validates Supabase-issued JWT access tokens. Token issuance
// and refresh live in Supabase; the API only verifies the HS256 signature
// and standard claims on incoming requests.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Predefined token validation errors.
var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
)

// DefaultAudience is the audience claim Supabase sets on user access tokens.
const DefaultAudience = "authenticated"

// Claims are the claims carried by a Supabase access token that the API
// cares about.
type Claims struct {
	jwt.RegisteredClaims

	// Email is the authenticated user's email address.
	Email string `json:"email,omitempty"`

	// Role is the Supabase role, "authenticated" for signed-in users.
	Role string `json:"role,omitempty"`
}

// UserID returns the authenticated user's ID (the subject claim).
func (c *Claims) UserID() string {
	return c.Subject
}

// VerifierConfig holds configuration for the token verifier.
type VerifierConfig struct {
	// Secret is the Supabase JWT secret used to verify HS256 signatures.
	Secret string

	// Audience is the expected audience claim (default: DefaultAudience).
	Audience string
}

// Verifier validates Supabase access tokens.
type Verifier struct {
	secret   []byte
	audience string
}

// NewVerifier creates a new token verifier.
func NewVerifier(cfg VerifierConfig) *Verifier {
	audience := cfg.Audience
	if audience == "" {
		audience = DefaultAudience
	}

	return &Verifier{
		secret:   []byte(cfg.Secret),
		audience: audience,
	}
}

// Verify validates an access token and returns its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrAccessTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccessToken, err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}
