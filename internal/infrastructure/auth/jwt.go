// Package auth verifies customer portal bearer tokens. RMS never issues
// tokens; it only checks tokens signed by the portal with a shared secret.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rms/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingSubject   = errors.New("missing sub in claims")
)

// PortalClaims are the claims carried by a portal token.
// Subject holds the portal user id.
type PortalClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// PortalIdentity is the verified caller identity, before RMS role lookup
type PortalIdentity struct {
	PortalUserID string
	Email        string
	ExpiresAt    time.Time
}

// PortalTokenVerifier validates HS256 portal tokens
type PortalTokenVerifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewPortalTokenVerifier creates a verifier from the JWT configuration
func NewPortalTokenVerifier(cfg config.JWTConfig) *PortalTokenVerifier {
	return &PortalTokenVerifier{
		secret: []byte(cfg.PortalSecret),
		issuer: cfg.Issuer,
		leeway: cfg.Leeway,
	}
}

// Verify checks the signature and time claims and returns the caller identity
func (v *PortalTokenVerifier) Verify(tokenString string) (*PortalIdentity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &PortalClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*PortalClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrMissingSubject
	}

	identity := &PortalIdentity{
		PortalUserID: claims.Subject,
		Email:        claims.Email,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// SignPortalToken signs claims with secret. Used by tooling and tests that
// stand in for the portal.
func SignPortalToken(secret string, claims PortalClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
