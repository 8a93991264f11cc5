package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "doceo/pkg/domain-errors"
)

func TestParseDocumentHash(t *testing.T) {
	valid := strings.Repeat("ab", HashSize)

	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseDocumentHash("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseDocumentHash(valid[:62])
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-hex characters", func(t *testing.T) {
		_, err := ParseDocumentHash(strings.Repeat("zz", HashSize))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("round-trips canonical form", func(t *testing.T) {
		h, err := ParseDocumentHash(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, h.String())
	})

	t.Run("normalizes uppercase input", func(t *testing.T) {
		h, err := ParseDocumentHash(strings.ToUpper(valid))
		require.NoError(t, err)
		assert.Equal(t, valid, h.String())
	})
}

func TestHashDocument(t *testing.T) {
	// SHA-256 of the empty input, a fixed vector.
	const emptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	h := HashDocument(nil)
	assert.Equal(t, emptyDigest, h.String())
	assert.False(t, h.IsZero())

	// Distinct documents address distinct hashes.
	assert.NotEqual(t, HashDocument([]byte("diploma-a")), HashDocument([]byte("diploma-b")))
}

func TestDocumentHashIsZero(t *testing.T) {
	assert.True(t, DocumentHash{}.IsZero())
	assert.False(t, HashDocument([]byte("x")).IsZero())
}
