package domain

import (
	"crypto/sha256"
	"encoding/hex"

	dErrors "doceo/pkg/domain-errors"
)

// HashSize is the byte length of a document hash.
const HashSize = 32

// DocumentHash is the content address of a credential document: the SHA-256
// digest of the document bytes. The ledger stores hashes only, never
// documents.
type DocumentHash [HashSize]byte

// ParseDocumentHash accepts the canonical 64-character hex form. Case is
// normalized on parse; String always renders lowercase.
func ParseDocumentHash(s string) (DocumentHash, error) {
	if s == "" {
		return DocumentHash{}, dErrors.New(dErrors.CodeInvalidInput, "document hash cannot be empty")
	}
	if len(s) != hex.EncodedLen(HashSize) {
		return DocumentHash{}, dErrors.New(dErrors.CodeInvalidInput, "document hash must be 64 hex characters")
	}
	var h DocumentHash
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return DocumentHash{}, dErrors.New(dErrors.CodeInvalidInput, "document hash is not valid hex")
	}
	return h, nil
}

// HashDocument computes the content address of raw document bytes.
func HashDocument(data []byte) DocumentHash {
	return DocumentHash(sha256.Sum256(data))
}

func (h DocumentHash) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether the hash is unset. The all-zero hash is not a legal
// document address.
func (h DocumentHash) IsZero() bool { return h == DocumentHash{} }
