package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "doceo/pkg/domain-errors"
)

// Request types opt into preparation stages by implementing any of these.
// DecodeAndPrepare runs them in order: sanitize, normalize, validate.

// Sanitizable strips unwanted characters or whitespace in place.
type Sanitizable interface {
	Sanitize()
}

// Normalizable rewrites fields into canonical form.
type Normalizable interface {
	Normalize()
}

// Validatable checks the prepared request and reports the first problem.
type Validatable interface {
	Validate() error
}

// DecodeAndPrepare reads the JSON body into T and runs the preparation
// stages the type implements. On any failure it writes the error response
// and returns (nil, false), so handlers just return.
//
//	req, ok := httputil.DecodeAndPrepare[StoreCredentialRequest](w, r, h.logger, ctx, requestID)
//	if !ok {
//		return
//	}
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reject(w, logger, ctx, requestID, "undecodable request body", err,
			dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	if err := prepare(&req); err != nil {
		reject(w, logger, ctx, requestID, "request failed preparation", err, asValidationError(err))
		return nil, false
	}
	return &req, true
}

// reject logs the server-side cause and answers with the client-facing
// error, which may carry less detail.
func reject(w http.ResponseWriter, logger *slog.Logger, ctx context.Context, requestID, msg string, cause, client error) {
	logger.WarnContext(ctx, msg,
		"error", cause,
		"request_id", requestID,
	)
	WriteError(w, client)
}

// asValidationError keeps the code on errors that already carry one and
// stamps the rest as validation failures.
func asValidationError(err error) error {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.New(dErrors.CodeValidation, err.Error())
}

func prepare(req any) error {
	if s, ok := req.(Sanitizable); ok {
		s.Sanitize()
	}
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := req.(Validatable); ok {
		return v.Validate()
	}
	return nil
}
