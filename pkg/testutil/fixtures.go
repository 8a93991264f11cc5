package testutil

import (
	"encoding/hex"

	"doceo/internal/ledger/models"
	id "doceo/pkg/domain"
)

// TestPrincipals provides canonical principals for tests. Use these for
// deterministic test data.
var TestPrincipals = struct {
	Admin     id.Principal
	Tutor1    id.Principal
	Tutor2    id.Principal
	Verifier1 id.Principal
	Verifier2 id.Principal
}{
	Admin:     "platform-admin",
	Tutor1:    "tutor-1",
	Tutor2:    "tutor-2",
	Verifier1: "verifier-1",
	Verifier2: "verifier-2",
}

// Hash returns a document hash with every byte set to seed. Distinct seeds
// give distinct hashes.
func Hash(seed byte) id.DocumentHash {
	var h id.DocumentHash
	for i := range h {
		h[i] = seed
	}
	return h
}

// HexHash returns the lowercase 64-character hex form of Hash(seed), ready
// for request bodies.
func HexHash(seed byte) string {
	h := Hash(seed)
	return hex.EncodeToString(h[:])
}

// CredentialBuilder provides a fluent interface for building test credentials.
type CredentialBuilder struct {
	credential models.Credential
}

// NewCredentialBuilder creates a CredentialBuilder with sensible defaults:
// an unverified credential stored by Tutor1 at tick 100000 with the standard
// expiry window.
func NewCredentialBuilder() *CredentialBuilder {
	return &CredentialBuilder{
		credential: models.Credential{
			Hash:         Hash(0xAB),
			Tutor:        TestPrincipals.Tutor1,
			Title:        "TEFL Certificate",
			Description:  "120-hour course",
			MetadataURI:  "ipfs://QmExample",
			RegisteredAt: 100000,
			Expiry:       100000 + 52560,
		},
	}
}

func (b *CredentialBuilder) WithHash(hash id.DocumentHash) *CredentialBuilder {
	b.credential.Hash = hash
	return b
}

func (b *CredentialBuilder) WithTutor(tutor id.Principal) *CredentialBuilder {
	b.credential.Tutor = tutor
	return b
}

func (b *CredentialBuilder) WithTitle(title string) *CredentialBuilder {
	b.credential.Title = title
	return b
}

func (b *CredentialBuilder) RegisteredAt(t id.Tick) *CredentialBuilder {
	b.credential.RegisteredAt = t
	return b
}

func (b *CredentialBuilder) ExpiresAt(t id.Tick) *CredentialBuilder {
	b.credential.Expiry = t
	return b
}

// Verified marks the credential verified by the given principal.
func (b *CredentialBuilder) Verified(by id.Principal) *CredentialBuilder {
	b.credential.Verified = true
	b.credential.Verifier = by
	return b
}

// Build returns a copy, so one builder can seed several records.
func (b *CredentialBuilder) Build() *models.Credential {
	credential := b.credential
	return &credential
}

// NewTestConfig returns a ledger configuration with the standard test
// values: 500000 fee, 52560 tick window, 10 document cap.
func NewTestConfig() *models.Config {
	return &models.Config{
		Admin:        TestPrincipals.Admin,
		StorageFee:   500000,
		ExpiryWindow: 52560,
		MaxDocuments: 10,
	}
}

// NewTestCredential creates a credential with the given hash and tutor and
// default values for everything else.
func NewTestCredential(hash id.DocumentHash, tutor id.Principal) *models.Credential {
	return NewCredentialBuilder().WithHash(hash).WithTutor(tutor).Build()
}
