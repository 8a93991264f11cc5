// Package domainerrors defines the coded errors the ledger raises. Codes
// name rejection causes in domain terms; transports translate them to
// status codes at the boundary.
package domainerrors

import "errors"

// Code is a stable rejection category.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeInternal           Code = "internal_error"
	CodeConflict           Code = "conflict"
	CodeUnauthenticated    Code = "unauthenticated"
	CodeUnauthorized       Code = "unauthorized"
	CodeTimeout            Code = "timeout"
	CodeUnavailable        Code = "unavailable"
	CodeInvariantViolation Code = "invariant_violation"

	// Ledger state-machine codes. One per rejection class; the first failing
	// precondition wins and is reported alone.
	CodeAlreadyStored       Code = "already_stored"        // Duplicate document hash
	CodeContractPaused      Code = "contract_paused"       // Ledger writes suspended by admin
	CodeNotVerified         Code = "not_verified"          // Reserved: no operation rejects on it today
	CodeExpired             Code = "expired"               // Validity window elapsed at query time
	CodeInvalidVerifier     Code = "invalid_verifier"      // Caller is neither admin nor an active verifier
	CodeMaxDocumentsReached Code = "max_documents_reached" // Tutor is at the per-tutor document cap
)

// Error carries a stable code alongside the message. Service, store, and
// transport layers all speak this type; HTTP status mapping happens once,
// at the edge.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches by code alone, so errors.Is works across instances with
// different messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap classifies err under code unless err already carries a domain
// code, in which case the first classification sticks. Rewrapping at
// layer boundaries never turns an already_stored into an internal_error.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		code = existing.Code
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
