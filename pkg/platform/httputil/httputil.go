// Package httputil renders the ledger's JSON envelopes and maps coded
// domain errors onto HTTP statuses at the transport edge.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	id "doceo/pkg/domain"
	dErrors "doceo/pkg/domain-errors"
	"doceo/pkg/requestcontext"
)

// WriteJSON encodes response with the given status. Encoding failures after
// WriteHeader cannot reach the client; the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError renders err as the error envelope. Coded domain errors keep
// their status and stable code; anything else collapses to a bare 500,
// since foreign error text may carry internals.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		WriteJSON(w, http.StatusInternalServerError, envelope(dErrors.CodeInternal, ""))
		return
	}
	WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), envelope(domainErr.Code, domainErr.Message))
}

// envelope builds the wire form. The description key is dropped when there
// is no message, not sent empty.
func envelope(code dErrors.Code, message string) map[string]string {
	body := map[string]string{"error": DomainCodeToHTTPCode(code)}
	if message != "" {
		body["error_description"] = message
	}
	return body
}

// DomainCodeToHTTPStatus maps rejection codes to HTTP statuses. The ledger's
// rejection kinds keep distinct statuses so sibling services can branch
// without parsing messages.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeConflict, dErrors.CodeAlreadyStored:
		return http.StatusConflict
	case dErrors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case dErrors.CodeUnauthorized, dErrors.CodeInvalidVerifier, dErrors.CodeMaxDocumentsReached, dErrors.CodeNotVerified:
		return http.StatusForbidden
	case dErrors.CodeExpired:
		return http.StatusGone
	case dErrors.CodeContractPaused, dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeInternal, dErrors.CodeInvariantViolation:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the stable error
// strings carried in JSON responses. Ledger rejection kinds pass through
// unchanged; generic codes collapse to their transport names.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound, dErrors.CodeAlreadyStored, dErrors.CodeContractPaused,
		dErrors.CodeExpired, dErrors.CodeInvalidVerifier, dErrors.CodeMaxDocumentsReached,
		dErrors.CodeNotVerified, dErrors.CodeInvalidInput, dErrors.CodeUnauthorized,
		dErrors.CodeUnauthenticated, dErrors.CodeConflict, dErrors.CodeTimeout,
		dErrors.CodeUnavailable:
		return string(code)
	case dErrors.CodeBadRequest:
		return "bad_request"
	case dErrors.CodeValidation, dErrors.CodeInvariantViolation:
		return "validation_error"
	case dErrors.CodeInternal:
		return "internal_error"
	default:
		return "internal_error"
	}
}

// RequireCaller extracts the authenticated principal from the context. The
// auth middleware always sets it on protected routes, so a miss here is a
// wiring bug and surfaces as an internal error rather than a 401.
func RequireCaller(ctx context.Context, logger *slog.Logger, requestID string) (id.Principal, error) {
	if caller := requestcontext.Caller(ctx); !caller.IsNil() {
		return caller, nil
	}
	if logger != nil {
		logger.ErrorContext(ctx, "caller missing from context despite auth middleware",
			"request_id", requestID)
	}
	return "", dErrors.New(dErrors.CodeInternal, "authentication context error")
}
