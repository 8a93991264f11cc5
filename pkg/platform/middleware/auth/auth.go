// Package auth authenticates public-API requests. A request carries a bearer
// token whose subject names the caller principal; authorization is not
// decided here.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "doceo/pkg/domain"
	"doceo/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
// Subject carries the caller's principal; the ledger does not interpret it
// beyond parsing.
type JWTClaims struct {
	Subject string
	JTI     string
}

// RequireAuth returns middleware that validates bearer tokens and stores the
// caller principal in the context. Authentication failures are 401s;
// authorization (admin, verifier, owner) is the service layer's concern and
// maps to 403 there.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			caller, clientDesc, err := authenticate(r, validator)
			if err != nil {
				logger.WarnContext(ctx, "request rejected as unauthenticated",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthenticated", clientDesc)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(ctx, caller)))
		})
	}
}

// authenticate resolves the request's bearer token to a principal. On
// failure the returned description is safe to show the client; the error is
// for the log only.
func authenticate(r *http.Request, validator JWTValidator) (id.Principal, string, error) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return "", "Missing or invalid Authorization header", errors.New("no bearer token")
	}

	claims, err := validator.ValidateToken(token)
	if err != nil {
		return "", "Invalid or expired token", fmt.Errorf("validate token: %w", err)
	}

	caller, err := id.ParsePrincipal(claims.Subject)
	if err != nil {
		return "", "Invalid or expired token", fmt.Errorf("parse token subject: %w", err)
	}

	return caller, "", nil
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}
