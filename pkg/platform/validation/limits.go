// Package validation centralizes the payload bounds the ledger accepts.
// Transport DTO tags mirror these values; the service enforces them again
// for callers that bypass HTTP.
package validation

import (
	"fmt"

	dErrors "doceo/pkg/domain-errors"
)

const (
	// MaxBodySize caps request bodies. Credential payloads are small;
	// 64 KB leaves generous headroom.
	MaxBodySize = 64 * 1024

	// MaxTitleLength bounds a credential title.
	MaxTitleLength = 120

	// MaxDescriptionLength bounds a credential description.
	MaxDescriptionLength = 500

	// MaxMetadataURILength bounds a credential metadata URI.
	MaxMetadataURILength = 256

	// MaxServiceNameLength truncates the self-reported service name
	// logged for /internal calls.
	MaxServiceNameLength = 64
)

// CheckStringLength rejects values longer than max with an invalid_input
// error naming the field.
func CheckStringLength(field, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s exceeds max length of %d", field, max))
	}
	return nil
}
