package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	assert.Equal(t, "document hash already stored", (&Error{Code: CodeAlreadyStored, Message: "document hash already stored"}).Error())
	assert.Equal(t, "already_stored", (&Error{Code: CodeAlreadyStored}).Error(), "falls back to the code")
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "failed to read credential")

	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, errors.Unwrap(New(CodeNotFound, "no such credential")))
}

func TestIsMatchesByCodeAlone(t *testing.T) {
	a := &Error{Code: CodeExpired, Message: "credential expired at tick 152560"}
	b := &Error{Code: CodeExpired, Message: "different wording"}

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, &Error{Code: CodeContractPaused}))
	assert.False(t, errors.Is(a, errors.New("expired")))
}

func TestWrapPreservesInnerCode(t *testing.T) {
	inner := New(CodeMaxDocumentsReached, "document limit reached for caller")
	outer := Wrap(inner, CodeInternal, "store rejected the write")

	var derr *Error
	require.True(t, errors.As(outer, &derr))
	assert.Equal(t, CodeMaxDocumentsReached, derr.Code, "the first classification survives rewrapping")
	assert.Equal(t, "store rejected the write", derr.Message)
}

func TestWrapClassifiesForeignErrors(t *testing.T) {
	outer := Wrap(errors.New("pq: deadlock detected"), CodeInternal, "transaction failed")

	var derr *Error
	require.True(t, errors.As(outer, &derr))
	assert.Equal(t, CodeInternal, derr.Code)
}

func TestHasCode(t *testing.T) {
	err := New(CodeInvalidVerifier, "caller is not an active verifier")

	assert.True(t, HasCode(err, CodeInvalidVerifier))
	assert.False(t, HasCode(err, CodeUnauthorized))
	assert.False(t, HasCode(errors.New("plain"), CodeInvalidVerifier))
	assert.False(t, HasCode(nil, CodeInvalidVerifier))
}

func TestHasCodeSeesThroughWrapping(t *testing.T) {
	err := Wrap(New(CodeAlreadyStored, "duplicate hash"), CodeInternal, "store failed")
	err = fmt.Errorf("handling request: %w", err)

	assert.True(t, HasCode(err, CodeAlreadyStored))
	assert.False(t, HasCode(err, CodeInternal), "wrapping never overwrites the original code")
}
