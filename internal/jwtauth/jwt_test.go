package jwtauth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "doceo/pkg/domain"
	dErrors "doceo/pkg/domain-errors"
)

const testTTL = time.Minute

var tutor = id.Principal("acct:tutor-" + uuid.NewString())

func testService() *Service {
	return NewService("test-signing-key", "test-issuer", "test-audience", testTTL)
}

func Test_GenerateToken(t *testing.T) {
	svc := testService()
	token, err := svc.GenerateToken(context.Background(), tutor)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, tutor.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID, "every token carries a fresh jti")
	assert.WithinDuration(t, time.Now().Add(testTTL), claims.ExpiresAt.Time, time.Minute)
}

func Test_GenerateToken_RejectsEmptyPrincipal(t *testing.T) {
	_, err := testService().GenerateToken(context.Background(), id.Principal(""))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	assert.Contains(t, err.Error(), "principal cannot be empty")
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := testService().ValidateToken("invalid-token-string")
	require.ErrorContains(t, err, "invalid token")
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	svc := testService()
	svc.now = func() time.Time { return time.Now().Add(-2 * testTTL) }

	token, err := svc.GenerateToken(context.Background(), tutor)
	require.NoError(t, err)

	_, err = testService().ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	assert.Contains(t, err.Error(), "token expired")
}

func Test_ValidateToken_RejectsAlgorithmConfusion(t *testing.T) {
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tutor.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "test-issuer",
			Audience:  []string{"test-audience"},
			ID:        uuid.NewString(),
		},
	}

	cases := map[string]struct {
		method jwt.SigningMethod
		key    any
	}{
		"hs512 header": {jwt.SigningMethodHS512, []byte("test-signing-key")},
		"alg none":     {jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			tokenString, err := jwt.NewWithClaims(tc.method, claims).SignedString(tc.key)
			require.NoError(t, err)

			_, err = testService().ValidateToken(tokenString)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func Test_ValidateToken_RejectsTamperedSignature(t *testing.T) {
	forger := NewService("wrong-key", "test-issuer", "test-audience", testTTL)
	token, err := forger.GenerateToken(context.Background(), tutor)
	require.NoError(t, err)

	_, err = testService().ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func Test_ValidateToken_RejectsInvalidIssuer(t *testing.T) {
	other := NewService("test-signing-key", "https://other.issuer.com", "test-audience", time.Hour)
	token, err := other.GenerateToken(context.Background(), tutor)
	require.NoError(t, err)

	_, err = testService().ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	assert.Contains(t, err.Error(), "invalid token issuer")
}

func Test_ValidateToken_RejectsWrongAudience(t *testing.T) {
	other := NewService("test-signing-key", "test-issuer", "payments-api", time.Hour)
	token, err := other.GenerateToken(context.Background(), tutor)
	require.NoError(t, err)

	_, err = testService().ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	assert.Contains(t, err.Error(), "invalid token audience")
}

func Test_ServiceAdapter_MapsClaims(t *testing.T) {
	svc := testService()
	token, err := svc.GenerateToken(context.Background(), tutor)
	require.NoError(t, err)

	claims, err := NewServiceAdapter(svc).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, tutor.String(), claims.Subject)
	assert.NotEmpty(t, claims.JTI)
}

func Test_ServiceAdapter_PropagatesErrors(t *testing.T) {
	_, err := NewServiceAdapter(testService()).ValidateToken("garbage")
	require.Error(t, err)
}
