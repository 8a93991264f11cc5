// Package domain provides the ledger's primitive types so callers cannot mix
// up principals, hashes, ticks and amounts at compile time.
package domain

import (
	"strings"
	"unicode"

	dErrors "doceo/pkg/domain-errors"
)

// MaxPrincipalLength bounds the accepted identity length. Platform account
// identifiers are well under this; the bound exists to reject garbage input
// at trust boundaries.
const MaxPrincipalLength = 128

// Principal is an opaque platform identity: a tutor, a verifier, the admin,
// or a sibling service account. Principals compare by exact equality and the
// ledger never interprets their contents.
type Principal string

// ParsePrincipal validates an identity string at trust boundaries
// (handlers, API inputs, config).
func ParsePrincipal(s string) (Principal, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "principal cannot be empty")
	}
	if len(s) > MaxPrincipalLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "principal exceeds maximum length")
	}
	if strings.ContainsFunc(s, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "principal contains whitespace or control characters")
	}
	return Principal(s), nil
}

func (p Principal) String() string { return string(p) }

// IsNil reports whether the principal is unset. Used for service-layer
// validation; optional fields (e.g. a credential's verifier before
// verification) hold the zero Principal.
func (p Principal) IsNil() bool { return p == "" }
