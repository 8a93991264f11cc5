package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	ledgerevents "doceo/contracts/ledger"
	"doceo/internal/ledger/models"
	"doceo/internal/sentinel"
	id "doceo/pkg/domain"
)

// PostgresStore persists the ledger in PostgreSQL. The store is pure I/O;
// precondition checks and state transitions belong to the service.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed ledger store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a PostgreSQL-backed ledger store bound to a transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{tx: tx}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresStore) GetCredential(ctx context.Context, hash id.DocumentHash) (*models.Credential, error) {
	query := `
		SELECT hash, tutor, title, description, metadata_uri, registered_at, expiry, verified, verifier, renewal_count
		FROM credentials
		WHERE hash = $1
	`
	credential, err := scanCredential(s.execer().QueryRowContext(ctx, query, hash.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return credential, nil
}

func (s *PostgresStore) InsertCredential(ctx context.Context, credential *models.Credential) error {
	if credential == nil {
		return fmt.Errorf("credential record is required")
	}
	query := `
		INSERT INTO credentials (hash, tutor, title, description, metadata_uri, registered_at, expiry, verified, verifier, renewal_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (hash) DO NOTHING
	`
	result, err := s.execer().ExecContext(ctx, query,
		credential.Hash.String(),
		credential.Tutor.String(),
		credential.Title,
		credential.Description,
		credential.MetadataURI,
		int64(credential.RegisteredAt),
		int64(credential.Expiry),
		credential.Verified,
		credential.Verifier.String(),
		int64(credential.RenewalCount),
	)
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert credential rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrAlreadyExists
	}
	return nil
}

func (s *PostgresStore) UpdateCredential(ctx context.Context, credential *models.Credential) error {
	if credential == nil {
		return fmt.Errorf("credential record is required")
	}
	query := `
		UPDATE credentials
		SET expiry = $2, verified = $3, verifier = $4, renewal_count = $5
		WHERE hash = $1
	`
	result, err := s.execer().ExecContext(ctx, query,
		credential.Hash.String(),
		int64(credential.Expiry),
		credential.Verified,
		credential.Verifier.String(),
		int64(credential.RenewalCount),
	)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CredentialCount(ctx context.Context, tutor id.Principal) (uint64, error) {
	var count int64
	err := s.execer().QueryRowContext(ctx,
		`SELECT document_count FROM tutor_documents WHERE tutor = $1`,
		tutor.String(),
	).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("credential count: %w", err)
	}
	return uint64(count), nil
}

func (s *PostgresStore) IncrementCredentialCount(ctx context.Context, tutor id.Principal) (uint64, error) {
	query := `
		INSERT INTO tutor_documents (tutor, document_count)
		VALUES ($1, 1)
		ON CONFLICT (tutor) DO UPDATE SET document_count = tutor_documents.document_count + 1
		RETURNING document_count
	`
	var count int64
	if err := s.execer().QueryRowContext(ctx, query, tutor.String()).Scan(&count); err != nil {
		return 0, fmt.Errorf("increment credential count: %w", err)
	}
	return uint64(count), nil
}

func (s *PostgresStore) GetVerifier(ctx context.Context, principal id.Principal) (*models.VerifierEntry, error) {
	query := `
		SELECT principal, active, added_at
		FROM verifiers
		WHERE principal = $1
	`
	entry, err := scanVerifier(s.execer().QueryRowContext(ctx, query, principal.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get verifier: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) PutVerifier(ctx context.Context, entry *models.VerifierEntry) error {
	if entry == nil {
		return fmt.Errorf("verifier entry is required")
	}
	query := `
		INSERT INTO verifiers (principal, active, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (principal) DO UPDATE SET
			active = EXCLUDED.active,
			added_at = EXCLUDED.added_at
	`
	_, err := s.execer().ExecContext(ctx, query, entry.Principal.String(), entry.Active, int64(entry.AddedAt))
	if err != nil {
		return fmt.Errorf("put verifier: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetConfig(ctx context.Context) (*models.Config, error) {
	query := `
		SELECT admin_principal, paused, storage_fee, expiry_window, max_documents
		FROM ledger_config
		WHERE id = 1
	`
	config, err := scanConfig(s.execer().QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get config: %w", err)
	}
	return config, nil
}

func (s *PostgresStore) PutConfig(ctx context.Context, config *models.Config) error {
	if config == nil {
		return fmt.Errorf("config record is required")
	}
	// event_seq is deliberately untouched on update: the event counter
	// survives configuration changes.
	query := `
		INSERT INTO ledger_config (id, admin_principal, paused, storage_fee, expiry_window, max_documents, event_seq)
		VALUES (1, $1, $2, $3, $4, $5, 0)
		ON CONFLICT (id) DO UPDATE SET
			admin_principal = EXCLUDED.admin_principal,
			paused = EXCLUDED.paused,
			storage_fee = EXCLUDED.storage_fee,
			expiry_window = EXCLUDED.expiry_window,
			max_documents = EXCLUDED.max_documents
	`
	_, err := s.execer().ExecContext(ctx, query,
		config.Admin.String(),
		config.Paused,
		int64(config.StorageFee),
		int64(config.ExpiryWindow),
		int64(config.MaxDocuments),
	)
	if err != nil {
		return fmt.Errorf("put config: %w", err)
	}
	return nil
}

// AppendEvent draws the next ID from the config row's event sequence and
// records the event. Both statements must run inside the caller's
// transaction so the sequence stays gapless on rollback.
func (s *PostgresStore) AppendEvent(ctx context.Context, typ ledgerevents.EventType, payload string, tick id.Tick) (*models.Event, error) {
	var seq int64
	err := s.execer().QueryRowContext(ctx,
		`UPDATE ledger_config SET event_seq = event_seq + 1 WHERE id = 1 RETURNING event_seq`,
	).Scan(&seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ledger not configured: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("next event id: %w", err)
	}

	event := &models.Event{
		ID:      uint64(seq),
		Type:    typ,
		Payload: payload,
		Tick:    tick,
	}
	err = s.execer().QueryRowContext(ctx,
		`INSERT INTO ledger_events (id, event_type, payload, tick) VALUES ($1, $2, $3, $4) RETURNING recorded_at`,
		seq, string(typ), payload, int64(tick),
	).Scan(&event.RecordedAt)
	if err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}
	return event, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, afterID uint64, limit int) ([]*models.Event, error) {
	query := `
		SELECT id, event_type, payload, tick, recorded_at, published_at
		FROM ledger_events
		WHERE id > $1
		ORDER BY id ASC
	`
	args := []any{int64(afterID)}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.execer().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// FetchUnpublished returns up to limit pending events, oldest first.
// FOR UPDATE SKIP LOCKED lets concurrent relays claim disjoint batches.
func (s *PostgresStore) FetchUnpublished(ctx context.Context, limit int) ([]*models.Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	const maxBatch = 1000
	if limit > maxBatch {
		limit = maxBatch
	}
	query := `
		SELECT id, event_type, payload, tick, recorded_at, published_at
		FROM ledger_events
		WHERE published_at IS NULL
		ORDER BY id ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := s.execer().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unpublished events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func (s *PostgresStore) MarkPublished(ctx context.Context, eventID uint64, at time.Time) error {
	result, err := s.execer().ExecContext(ctx,
		`UPDATE ledger_events SET published_at = $2 WHERE id = $1 AND published_at IS NULL`,
		int64(eventID), at,
	)
	if err != nil {
		return fmt.Errorf("mark event published: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark event published rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountPending(ctx context.Context) (int, error) {
	var count int
	err := s.execer().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_events WHERE published_at IS NULL`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending events: %w", err)
	}
	return count, nil
}

func scanCredential(row interface{ Scan(dest ...any) error }) (*models.Credential, error) {
	var (
		credential   models.Credential
		hash         string
		tutor        string
		verifier     string
		registeredAt int64
		expiry       int64
		renewalCount int64
	)
	err := row.Scan(&hash, &tutor, &credential.Title, &credential.Description, &credential.MetadataURI,
		&registeredAt, &expiry, &credential.Verified, &verifier, &renewalCount)
	if err != nil {
		return nil, err
	}
	credential.Hash, err = id.ParseDocumentHash(hash)
	if err != nil {
		return nil, fmt.Errorf("stored hash invalid: %w", err)
	}
	credential.Tutor = id.Principal(tutor)
	credential.Verifier = id.Principal(verifier)
	credential.RegisteredAt = id.Tick(registeredAt)
	credential.Expiry = id.Tick(expiry)
	credential.RenewalCount = uint64(renewalCount)
	return &credential, nil
}

func scanVerifier(row interface{ Scan(dest ...any) error }) (*models.VerifierEntry, error) {
	var (
		entry     models.VerifierEntry
		principal string
		addedAt   int64
	)
	if err := row.Scan(&principal, &entry.Active, &addedAt); err != nil {
		return nil, err
	}
	entry.Principal = id.Principal(principal)
	entry.AddedAt = id.Tick(addedAt)
	return &entry, nil
}

func scanConfig(row interface{ Scan(dest ...any) error }) (*models.Config, error) {
	var (
		config       models.Config
		admin        string
		storageFee   int64
		expiryWindow int64
		maxDocuments int64
	)
	if err := row.Scan(&admin, &config.Paused, &storageFee, &expiryWindow, &maxDocuments); err != nil {
		return nil, err
	}
	config.Admin = id.Principal(admin)
	config.StorageFee = id.Amount(storageFee)
	config.ExpiryWindow = uint64(expiryWindow)
	config.MaxDocuments = uint64(maxDocuments)
	return &config, nil
}

func scanEvent(row interface{ Scan(dest ...any) error }) (*models.Event, error) {
	var (
		event       models.Event
		eventID     int64
		eventType   string
		tick        int64
		publishedAt sql.NullTime
	)
	err := row.Scan(&eventID, &eventType, &event.Payload, &tick, &event.RecordedAt, &publishedAt)
	if err != nil {
		return nil, err
	}
	event.ID = uint64(eventID)
	event.Type = ledgerevents.EventType(eventType)
	event.Tick = id.Tick(tick)
	if publishedAt.Valid {
		event.PublishedAt = &publishedAt.Time
	}
	return &event, nil
}

func collectEvents(rows *sql.Rows) ([]*models.Event, error) {
	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
