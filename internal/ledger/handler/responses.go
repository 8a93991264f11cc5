package handler

import (
	"time"

	"doceo/internal/ledger/models"
)

// CredentialResponse is the HTTP shape of a credential record. Ticks are
// plain numbers; sibling services convert to wall time themselves.
type CredentialResponse struct {
	Hash         string `json:"hash"`
	Tutor        string `json:"tutor"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	MetadataURI  string `json:"metadata_uri,omitempty"`
	RegisteredAt uint64 `json:"registered_at"`
	Expiry       uint64 `json:"expiry"`
	Verified     bool   `json:"verified"`
	Verifier     string `json:"verifier,omitempty"`
	RenewalCount uint64 `json:"renewal_count"`
}

// StatusResponse reports the verification state of a live credential.
type StatusResponse struct {
	Hash     string `json:"hash"`
	Verified bool   `json:"verified"`
}

// CountResponse reports how many credentials a tutor has stored.
type CountResponse struct {
	Tutor string `json:"tutor"`
	Count uint64 `json:"count"`
}

// VerifierStatusResponse reports whether a principal currently holds
// verification authority.
type VerifierStatusResponse struct {
	Principal string `json:"principal"`
	Active    bool   `json:"active"`
}

// VerifierResponse is returned after a roster change.
type VerifierResponse struct {
	Principal string `json:"principal"`
	Active    bool   `json:"active"`
	AddedAt   uint64 `json:"added_at"`
}

// ConfigResponse is the ledger configuration snapshot.
type ConfigResponse struct {
	Admin        string `json:"admin"`
	Paused       bool   `json:"paused"`
	StorageFee   uint64 `json:"storage_fee"`
	ExpiryWindow uint64 `json:"expiry_window"`
	MaxDocuments uint64 `json:"max_documents"`
}

// EventResponse is one entry of the ordered event log.
type EventResponse struct {
	ID         uint64    `json:"id"`
	Type       string    `json:"type"`
	Payload    string    `json:"payload"`
	Tick       uint64    `json:"tick"`
	RecordedAt time.Time `json:"recorded_at"`
}

// EventsResponse is returned when listing events.
type EventsResponse struct {
	Events []*EventResponse `json:"events"`
}

func toCredentialResponse(c *models.Credential) *CredentialResponse {
	resp := &CredentialResponse{
		Hash:         c.Hash.String(),
		Tutor:        c.Tutor.String(),
		Title:        c.Title,
		Description:  c.Description,
		MetadataURI:  c.MetadataURI,
		RegisteredAt: uint64(c.RegisteredAt),
		Expiry:       uint64(c.Expiry),
		Verified:     c.Verified,
		RenewalCount: c.RenewalCount,
	}
	if !c.Verifier.IsNil() {
		resp.Verifier = c.Verifier.String()
	}
	return resp
}

func toVerifierResponse(entry *models.VerifierEntry) *VerifierResponse {
	return &VerifierResponse{
		Principal: entry.Principal.String(),
		Active:    entry.Active,
		AddedAt:   uint64(entry.AddedAt),
	}
}

func toConfigResponse(config *models.Config) *ConfigResponse {
	return &ConfigResponse{
		Admin:        config.Admin.String(),
		Paused:       config.Paused,
		StorageFee:   uint64(config.StorageFee),
		ExpiryWindow: config.ExpiryWindow,
		MaxDocuments: config.MaxDocuments,
	}
}

func toEventsResponse(events []*models.Event) *EventsResponse {
	out := make([]*EventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, &EventResponse{
			ID:         event.ID,
			Type:       string(event.Type),
			Payload:    event.Payload,
			Tick:       uint64(event.Tick),
			RecordedAt: event.RecordedAt,
		})
	}
	return &EventsResponse{Events: out}
}
