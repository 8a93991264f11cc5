// Package jwtauth issues and validates the HS256 bearer tokens the public
// API accepts. The server only validates; issuing lives in tokengen and the
// test harnesses.
package jwtauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	id "doceo/pkg/domain"
	dErrors "doceo/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims are the claims carried by ledger access tokens. The
// caller principal rides in the standard subject claim.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
}

// Service signs and checks access tokens against a single shared key.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	tokenTTL   time.Duration

	now func() time.Time
}

func NewService(signingKey string, issuer string, audience string, tokenTTL time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		tokenTTL:   tokenTTL,
		now:        time.Now,
	}
}

// GenerateToken issues a signed access token naming the principal as its
// subject.
func (s *Service) GenerateToken(ctx context.Context, principal id.Principal) (string, error) {
	if principal.IsNil() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "principal cannot be empty")
	}

	jti, err := newJTI()
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        jti,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

func newJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ValidateToken checks signature, algorithm, expiry, issuer and audience.
// Expiry maps to unauthenticated so clients know to fetch a fresh token;
// every other failure is just an invalid token.
func (s *Service) ValidateToken(tokenString string) (*AccessTokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, s.keyFunc,
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "token expired")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid token issuer")
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid token audience")
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid token")
	}

	claims, ok := parsed.Claims.(*AccessTokenClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid token claims")
	}
	return claims, nil
}

// keyFunc rejects any algorithm other than the one we sign with. Without
// this a forged token could name a weaker algorithm and still verify.
func (s *Service) keyFunc(token *jwt.Token) (any, error) {
	if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, jwt.ErrTokenUnverifiable
	}
	return s.signingKey, nil
}
