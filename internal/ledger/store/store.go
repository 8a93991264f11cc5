// Package store persists the ledger's state: credential records, per-tutor
// document counts, the verifier roster, the configuration record, and the
// ordered event log.
package store

import (
	"context"
	"time"

	ledgerevents "doceo/contracts/ledger"
	"doceo/internal/ledger/models"
	id "doceo/pkg/domain"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return sentinel.ErrNotFound when the requested entity does not exist
// - Return sentinel.ErrAlreadyExists when an insert collides with an existing key
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures (DB errors, network issues)

type Store interface {
	GetCredential(ctx context.Context, hash id.DocumentHash) (*models.Credential, error)
	InsertCredential(ctx context.Context, credential *models.Credential) error
	UpdateCredential(ctx context.Context, credential *models.Credential) error

	// CredentialCount returns the lifetime number of documents a tutor has
	// stored. The count never decreases; absent tutors count zero.
	CredentialCount(ctx context.Context, tutor id.Principal) (uint64, error)
	IncrementCredentialCount(ctx context.Context, tutor id.Principal) (uint64, error)

	GetVerifier(ctx context.Context, principal id.Principal) (*models.VerifierEntry, error)
	PutVerifier(ctx context.Context, entry *models.VerifierEntry) error

	GetConfig(ctx context.Context) (*models.Config, error)
	PutConfig(ctx context.Context, config *models.Config) error

	// AppendEvent assigns the next sequential event ID (starting at 1) and
	// records the event. Gapless assignment is the store's responsibility.
	AppendEvent(ctx context.Context, typ ledgerevents.EventType, payload string, tick id.Tick) (*models.Event, error)
	ListEvents(ctx context.Context, afterID uint64, limit int) ([]*models.Event, error)

	FetchUnpublished(ctx context.Context, limit int) ([]*models.Event, error)
	MarkPublished(ctx context.Context, eventID uint64, at time.Time) error
	CountPending(ctx context.Context) (int, error)
}
