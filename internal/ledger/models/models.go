// Package models defines the credential ledger's owned state: credential
// records, the verifier roster, the mutable configuration, and the ordered
// event log.
package models

import (
	"time"

	ledgerevents "doceo/contracts/ledger"
	id "doceo/pkg/domain"
)

// Credential is one stored credential record, keyed by its document hash.
// Tutor, title, description, metadata URI, and registration tick are
// immutable after creation. A record is never deleted.
type Credential struct {
	Hash         id.DocumentHash
	Tutor        id.Principal
	Title        string
	Description  string
	MetadataURI  string
	RegisteredAt id.Tick
	Expiry       id.Tick
	Verified     bool
	Verifier     id.Principal // zero until first verified
	RenewalCount uint64
}

// MarkVerified flips the record to verified and records who did it.
// The flag never reverts; re-verification just updates the verifier.
func (c *Credential) MarkVerified(by id.Principal) {
	c.Verified = true
	c.Verifier = by
}

// Renew pushes the expiry out from now. The verification state is
// deliberately untouched: renewal and verification are orthogonal.
func (c *Credential) Renew(now id.Tick, window uint64) {
	c.Expiry = now.Add(window)
	c.RenewalCount++
}

// ExpiredAt reports whether the credential has lapsed at the given tick.
// A credential expiring exactly at now is still live.
func (c *Credential) ExpiredAt(now id.Tick) bool {
	return now.After(c.Expiry)
}

// VerifierEntry is one row of the delegated verifier roster. Entries are
// overwritten in place; an inactive entry denies exactly like an absent one.
type VerifierEntry struct {
	Principal id.Principal
	Active    bool
	AddedAt   id.Tick
}

// Config is the single authoritative configuration record. Admin is fixed
// at bootstrap and never reassigned; the remaining fields are mutable
// through admin operations only.
type Config struct {
	Admin        id.Principal
	Paused       bool
	StorageFee   id.Amount
	ExpiryWindow uint64
	MaxDocuments uint64
}

// Event is one entry of the ordered ledger event log. IDs start at 1 and
// increase by exactly one per event. PublishedAt is nil until the relay
// has delivered the event to the broker.
type Event struct {
	ID          uint64
	Type        ledgerevents.EventType
	Payload     string
	Tick        id.Tick
	RecordedAt  time.Time
	PublishedAt *time.Time
}

// IsPending returns true if this event has not been published yet.
func (e *Event) IsPending() bool {
	return e.PublishedAt == nil
}

// Envelope converts the event to its wire form.
func (e *Event) Envelope() ledgerevents.Envelope {
	return ledgerevents.Envelope{
		ID:      e.ID,
		Type:    e.Type,
		Payload: e.Payload,
		Tick:    uint64(e.Tick),
	}
}
