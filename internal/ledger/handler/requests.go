package handler

import (
	"strings"

	id "doceo/pkg/domain"
	s "doceo/pkg/string"
	"doceo/pkg/validation"
)

// StoreCredentialRequest registers a content-addressed credential document.
type StoreCredentialRequest struct {
	Hash        string `json:"hash" validate:"required,len=64,hexadecimal"`
	Title       string `json:"title" validate:"required,notblank,max=120"`
	Description string `json:"description" validate:"omitempty,max=500"`
	MetadataURI string `json:"metadata_uri" validate:"omitempty,max=256"`
}

func (r *StoreCredentialRequest) Sanitize() {
	s.TrimStrings(&r.Hash, &r.Title, &r.Description, &r.MetadataURI)
}

// Normalize lowercases the hash so both hex casings address the same document.
func (r *StoreCredentialRequest) Normalize() {
	r.Hash = strings.ToLower(r.Hash)
}

func (r *StoreCredentialRequest) Validate() error {
	return validation.Validate(r)
}

// DocumentHash parses the validated hex form into the domain hash.
func (r *StoreCredentialRequest) DocumentHash() (id.DocumentHash, error) {
	return id.ParseDocumentHash(r.Hash)
}

// AddVerifierRequest delegates verification authority to a principal.
type AddVerifierRequest struct {
	Principal string `json:"principal" validate:"required,notblank,max=128"`
}

func (r *AddVerifierRequest) Sanitize() {
	s.TrimStrings(&r.Principal)
}

func (r *AddVerifierRequest) Validate() error {
	return validation.Validate(r)
}

func (r *AddVerifierRequest) ToPrincipal() (id.Principal, error) {
	return id.ParsePrincipal(r.Principal)
}

// SetPausedRequest flips the ledger pause switch. The field is a pointer so
// an explicit false survives required-field validation.
type SetPausedRequest struct {
	Paused *bool `json:"paused" validate:"required"`
}

func (r *SetPausedRequest) Validate() error {
	return validation.Validate(r)
}

// SetStorageFeeRequest replaces the storage fee. Zero is a legal fee, hence
// the pointer.
type SetStorageFeeRequest struct {
	Fee *uint64 `json:"fee" validate:"required"`
}

func (r *SetStorageFeeRequest) Validate() error {
	return validation.Validate(r)
}

// SetMaxDocumentsRequest replaces the per-tutor document cap. Zero blocks all
// stores and is allowed.
type SetMaxDocumentsRequest struct {
	MaxDocuments *uint64 `json:"max_documents" validate:"required"`
}

func (r *SetMaxDocumentsRequest) Validate() error {
	return validation.Validate(r)
}
