package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "doceo/pkg/domain-errors"
)

type storeCredentialBody struct {
	Hash        string `validate:"required,len=64,hexadecimal"`
	Title       string `validate:"required,notblank,max=120"`
	MetadataURI string `validate:"omitempty,max=256"`
}

func validBody() storeCredentialBody {
	return storeCredentialBody{
		Hash:  strings.Repeat("a", 64),
		Title: "BSc Mathematics",
	}
}

func TestValidatePasses(t *testing.T) {
	assert.NoError(t, Validate(validBody()))
}

func TestValidateRendersFirstViolation(t *testing.T) {
	cases := map[string]struct {
		mutate func(*storeCredentialBody)
		want   string
	}{
		"missing title": {
			mutate: func(b *storeCredentialBody) { b.Title = "" },
			want:   "title is required",
		},
		"blank title": {
			mutate: func(b *storeCredentialBody) { b.Title = "   " },
			want:   "title must not be blank",
		},
		"short hash": {
			mutate: func(b *storeCredentialBody) { b.Hash = "abc123" },
			want:   "hash must be exactly 64 characters",
		},
		"non-hex hash": {
			mutate: func(b *storeCredentialBody) { b.Hash = strings.Repeat("z", 64) },
			want:   "hash must be hexadecimal",
		},
		"oversized title": {
			mutate: func(b *storeCredentialBody) { b.Title = strings.Repeat("x", 121) },
			want:   "title must be at most 120",
		},
		"oversized metadata uri": {
			mutate: func(b *storeCredentialBody) { b.MetadataURI = "https://" + strings.Repeat("x", 250) },
			want:   "metadata_uri must be at most 256",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			body := validBody()
			tc.mutate(&body)

			err := Validate(body)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidateMinRule(t *testing.T) {
	type renewBody struct {
		Periods int `validate:"min=1"`
	}

	err := Validate(renewBody{Periods: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "periods must be at least 1")
}

func TestErrorMessageFallsBackForUnknownRule(t *testing.T) {
	type refBody struct {
		Ref string `validate:"uuid"`
	}

	err := validate.Struct(refBody{Ref: "not-a-uuid"})
	require.Error(t, err)
	assert.Equal(t, "ref is invalid", ErrorMessage(err))
}

func TestErrorMessageNonValidatorError(t *testing.T) {
	assert.Equal(t, "invalid request body", ErrorMessage(errors.New("boom")))
}
