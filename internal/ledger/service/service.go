// Package service implements the credential ledger operations: storing,
// verifying, and renewing credentials, managing the verifier roster, and
// administering the ledger configuration. Every mutation runs inside the
// single-writer transaction boundary and either applies fully or leaves no
// trace.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	ledgerevents "doceo/contracts/ledger"
	"doceo/internal/ledger/metrics"
	"doceo/internal/ledger/models"
	"doceo/internal/ledger/store"
	"doceo/internal/ledger/tracer"
	"doceo/internal/payments"
	"doceo/internal/sentinel"
	id "doceo/pkg/domain"
	dErrors "doceo/pkg/domain-errors"
	"doceo/pkg/platform/middleware/requesttick"
	"doceo/pkg/platform/validation"
)

// Operation names for metrics labels.
const (
	opStore           = "store"
	opVerify          = "verify"
	opRenew           = "renew"
	opAddVerifier     = "add_verifier"
	opRemoveVerifier  = "remove_verifier"
	opSetPaused       = "set_paused"
	opSetStorageFee   = "set_storage_fee"
	opSetMaxDocuments = "set_max_documents"
)

type Option func(*Service)

// Service coordinates ledger state transitions. Reads go to the read store
// (cached in production); mutations run through the transaction boundary.
// The logical clock is request-scoped: every operation uses the tick
// captured in the context via requesttick, so a single request observes one
// consistent clock value.
type Service struct {
	tx       StoreTx
	reads    store.Store
	payments payments.Channel
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
	logger   *slog.Logger
}

func NewService(tx StoreTx, reads store.Store, channel payments.Channel, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		tx:       tx,
		reads:    reads,
		payments: channel,
		tracer:   tracer.NewNoop(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer sets the tracer for the service's state transitions.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// Bootstrap seeds the configuration record when none exists yet. The admin
// principal is fixed here for the lifetime of the ledger; subsequent calls
// with a config already in place are no-ops.
func (s *Service) Bootstrap(ctx context.Context, defaults models.Config) error {
	if defaults.Admin.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "admin principal is required")
	}
	return s.tx.RunInTx(ctx, func(st store.Store) error {
		_, err := st.GetConfig(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read config")
		}
		if err := st.PutConfig(ctx, &defaults); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed config")
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "ledger configuration seeded",
				"admin", defaults.Admin,
				"storage_fee", defaults.StorageFee,
				"expiry_window", defaults.ExpiryWindow,
				"max_documents", defaults.MaxDocuments,
			)
		}
		return nil
	})
}

// StoreCredential records a new credential for the caller. Preconditions are
// checked in a fixed order and the first failure wins: ledger not paused,
// caller under the document cap, hash unused, balance covers the storage
// fee. The fee moves to the admin account before any state is written; if
// the write then fails, the fee is refunded.
func (s *Service) StoreCredential(ctx context.Context, caller id.Principal, hash id.DocumentHash, title, description, metadataURI string) (credential *models.Credential, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanStoreCredential,
		tracer.String(tracer.AttrCaller, caller.String()),
		tracer.String(tracer.AttrHash, hash.String()),
	)
	defer func() { span.End(err) }()

	if caller.IsNil() {
		return nil, s.reject(opStore, start, dErrors.New(dErrors.CodeUnauthenticated, "missing caller identity"))
	}
	if hash.IsZero() {
		return nil, s.reject(opStore, start, dErrors.New(dErrors.CodeInvalidInput, "document hash is required"))
	}
	if title == "" {
		return nil, s.reject(opStore, start, dErrors.New(dErrors.CodeInvalidInput, "title is required"))
	}
	// The HTTP layer enforces these via DTO tags; check again for callers
	// that construct requests directly, like the demo seeder.
	if err := validation.CheckStringLength("title", title, validation.MaxTitleLength); err != nil {
		return nil, s.reject(opStore, start, err)
	}
	if err := validation.CheckStringLength("description", description, validation.MaxDescriptionLength); err != nil {
		return nil, s.reject(opStore, start, err)
	}
	if err := validation.CheckStringLength("metadata_uri", metadataURI, validation.MaxMetadataURILength); err != nil {
		return nil, s.reject(opStore, start, err)
	}

	now := requesttick.Now(ctx)
	span.SetAttributes(tracer.Uint64(tracer.AttrTick, uint64(now)))
	var (
		collected id.Amount
		collector id.Principal
	)
	err = s.tx.RunInTx(ctx, func(st store.Store) error {
		config, err := readConfig(ctx, st)
		if err != nil {
			return err
		}
		if config.Paused {
			return dErrors.New(dErrors.CodeContractPaused, "ledger is paused")
		}

		count, err := st.CredentialCount(ctx, caller)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read document count")
		}
		if count >= config.MaxDocuments {
			return dErrors.New(dErrors.CodeMaxDocumentsReached, "document limit reached for caller")
		}

		if _, err := st.GetCredential(ctx, hash); err == nil {
			return dErrors.New(dErrors.CodeAlreadyStored, "document hash already stored")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential")
		}

		if err := s.collectFee(ctx, caller, config.Admin, config.StorageFee); err != nil {
			return err
		}
		collected, collector = config.StorageFee, config.Admin

		credential = &models.Credential{
			Hash:         hash,
			Tutor:        caller,
			Title:        title,
			Description:  description,
			MetadataURI:  metadataURI,
			RegisteredAt: now,
			Expiry:       now.Add(config.ExpiryWindow),
		}
		if err := st.InsertCredential(ctx, credential); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record credential")
		}
		if _, err := st.IncrementCredentialCount(ctx, caller); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update document count")
		}
		return s.emit(ctx, st, ledgerevents.EventCredentialStored, ledgerevents.CredentialPayload(caller.String(), hash.String()), now)
	})
	if err != nil {
		s.refundOnFailure(ctx, collector, caller, collected)
		return nil, s.reject(opStore, start, err)
	}

	s.applied(opStore, start, ledgerevents.EventCredentialStored, uint64(collected))
	if s.logger != nil {
		s.logger.InfoContext(ctx, "credential stored",
			"tutor", caller,
			"hash", hash.String(),
			"expiry", credential.Expiry,
			"fee", collected,
		)
	}
	return credential, nil
}

// VerifyCredential marks a credential verified on behalf of the admin or an
// active delegated verifier. Expiry is not consulted: verification and
// validity windows are independent, so a lapsed credential can be verified
// and still read as expired.
func (s *Service) VerifyCredential(ctx context.Context, caller id.Principal, hash id.DocumentHash) (credential *models.Credential, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerifyCredential,
		tracer.String(tracer.AttrCaller, caller.String()),
		tracer.String(tracer.AttrHash, hash.String()),
	)
	defer func() { span.End(err) }()

	if caller.IsNil() {
		return nil, s.reject(opVerify, start, dErrors.New(dErrors.CodeUnauthenticated, "missing caller identity"))
	}

	now := requesttick.Now(ctx)
	err = s.tx.RunInTx(ctx, func(st store.Store) error {
		config, err := readConfig(ctx, st)
		if err != nil {
			return err
		}
		if config.Paused {
			return dErrors.New(dErrors.CodeContractPaused, "ledger is paused")
		}

		credential, err = st.GetCredential(ctx, hash)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "credential not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential")
		}

		if caller != config.Admin {
			entry, err := st.GetVerifier(ctx, caller)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.New(dErrors.CodeInvalidVerifier, "caller is not an authorized verifier")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read verifier entry")
			}
			if !entry.Active {
				return dErrors.New(dErrors.CodeInvalidVerifier, "caller is not an authorized verifier")
			}
		}

		credential.MarkVerified(caller)
		if err := st.UpdateCredential(ctx, credential); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update credential")
		}
		return s.emit(ctx, st, ledgerevents.EventCredentialVerified, ledgerevents.CredentialPayload(credential.Tutor.String(), hash.String()), now)
	})
	if err != nil {
		return nil, s.reject(opVerify, start, err)
	}

	s.applied(opVerify, start, ledgerevents.EventCredentialVerified, 0)
	if s.logger != nil {
		s.logger.InfoContext(ctx, "credential verified",
			"verifier", caller,
			"tutor", credential.Tutor,
			"hash", hash.String(),
		)
	}
	return credential, nil
}

// RenewCredential extends a credential's validity window for another fee.
// Only the owning tutor may renew; the admin gets no exemption here.
// Verification state is untouched, and an already-expired credential can be
// renewed back to life.
func (s *Service) RenewCredential(ctx context.Context, caller id.Principal, hash id.DocumentHash) (credential *models.Credential, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanRenewCredential,
		tracer.String(tracer.AttrCaller, caller.String()),
		tracer.String(tracer.AttrHash, hash.String()),
	)
	defer func() { span.End(err) }()

	if caller.IsNil() {
		return nil, s.reject(opRenew, start, dErrors.New(dErrors.CodeUnauthenticated, "missing caller identity"))
	}

	now := requesttick.Now(ctx)
	span.SetAttributes(tracer.Uint64(tracer.AttrTick, uint64(now)))
	var (
		collected id.Amount
		collector id.Principal
	)
	err = s.tx.RunInTx(ctx, func(st store.Store) error {
		config, err := readConfig(ctx, st)
		if err != nil {
			return err
		}
		if config.Paused {
			return dErrors.New(dErrors.CodeContractPaused, "ledger is paused")
		}

		credential, err = st.GetCredential(ctx, hash)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "credential not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential")
		}
		if credential.Tutor != caller {
			return dErrors.New(dErrors.CodeUnauthorized, "only the credential owner can renew")
		}

		if err := s.collectFee(ctx, caller, config.Admin, config.StorageFee); err != nil {
			return err
		}
		collected, collector = config.StorageFee, config.Admin

		credential.Renew(now, config.ExpiryWindow)
		if err := st.UpdateCredential(ctx, credential); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update credential")
		}
		return s.emit(ctx, st, ledgerevents.EventCredentialRenewed, ledgerevents.CredentialPayload(credential.Tutor.String(), hash.String()), now)
	})
	if err != nil {
		s.refundOnFailure(ctx, collector, caller, collected)
		return nil, s.reject(opRenew, start, err)
	}

	s.applied(opRenew, start, ledgerevents.EventCredentialRenewed, uint64(collected))
	if s.logger != nil {
		s.logger.InfoContext(ctx, "credential renewed",
			"tutor", caller,
			"hash", hash.String(),
			"expiry", credential.Expiry,
			"renewal_count", credential.RenewalCount,
		)
	}
	return credential, nil
}

// AddVerifier enrolls or re-activates a delegated verifier. Admin only.
// The entry is overwritten in place, so repeated adds refresh AddedAt.
func (s *Service) AddVerifier(ctx context.Context, caller, principal id.Principal) (*models.VerifierEntry, error) {
	return s.putVerifier(ctx, opAddVerifier, caller, principal, true, ledgerevents.EventVerifierAdded)
}

// RemoveVerifier deactivates a delegated verifier. Admin only. Removing an
// unknown principal still records an inactive entry and emits the event.
func (s *Service) RemoveVerifier(ctx context.Context, caller, principal id.Principal) (*models.VerifierEntry, error) {
	return s.putVerifier(ctx, opRemoveVerifier, caller, principal, false, ledgerevents.EventVerifierRemoved)
}

func (s *Service) putVerifier(ctx context.Context, op string, caller, principal id.Principal, active bool, eventType ledgerevents.EventType) (*models.VerifierEntry, error) {
	start := time.Now()
	if caller.IsNil() {
		return nil, s.reject(op, start, dErrors.New(dErrors.CodeUnauthenticated, "missing caller identity"))
	}
	if principal.IsNil() {
		return nil, s.reject(op, start, dErrors.New(dErrors.CodeInvalidInput, "verifier principal is required"))
	}

	now := requesttick.Now(ctx)
	var entry *models.VerifierEntry
	err := s.tx.RunInTx(ctx, func(st store.Store) error {
		config, err := readConfig(ctx, st)
		if err != nil {
			return err
		}
		if err := requireAdmin(config, caller); err != nil {
			return err
		}

		entry = &models.VerifierEntry{Principal: principal, Active: active, AddedAt: now}
		if err := st.PutVerifier(ctx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write verifier entry")
		}
		return s.emit(ctx, st, eventType, principal.String(), now)
	})
	if err != nil {
		return nil, s.reject(op, start, err)
	}

	s.applied(op, start, eventType, 0)
	if s.logger != nil {
		s.logger.InfoContext(ctx, "verifier roster updated",
			"verifier", principal,
			"active", active,
		)
	}
	return entry, nil
}

// SetPaused flips the ledger's write gate. Admin only, and deliberately not
// gated on the pause flag itself so the admin can always unpause.
func (s *Service) SetPaused(ctx context.Context, caller id.Principal, paused bool) (*models.Config, error) {
	eventType := ledgerevents.EventContractUnpaused
	if paused {
		eventType = ledgerevents.EventContractPaused
	}
	return s.updateConfig(ctx, opSetPaused, caller, eventType, ledgerevents.StatusUpdatedPayload, func(config *models.Config) {
		config.Paused = paused
	})
}

// SetStorageFee overwrites the storage fee. Admin only; no bounds are
// enforced, zero disables fee collection in practice.
func (s *Service) SetStorageFee(ctx context.Context, caller id.Principal, fee id.Amount) (*models.Config, error) {
	return s.updateConfig(ctx, opSetStorageFee, caller, ledgerevents.EventFeeUpdated, ledgerevents.NumericPayload(uint64(fee)), func(config *models.Config) {
		config.StorageFee = fee
	})
}

// SetMaxDocuments overwrites the per-tutor document cap. Admin only; no
// bounds are enforced, and zero blocks all further stores.
func (s *Service) SetMaxDocuments(ctx context.Context, caller id.Principal, maxDocuments uint64) (*models.Config, error) {
	return s.updateConfig(ctx, opSetMaxDocuments, caller, ledgerevents.EventMaxDocumentsUpdated, ledgerevents.NumericPayload(maxDocuments), func(config *models.Config) {
		config.MaxDocuments = maxDocuments
	})
}

func (s *Service) updateConfig(ctx context.Context, op string, caller id.Principal, eventType ledgerevents.EventType, payload string, apply func(*models.Config)) (*models.Config, error) {
	start := time.Now()
	if caller.IsNil() {
		return nil, s.reject(op, start, dErrors.New(dErrors.CodeUnauthenticated, "missing caller identity"))
	}

	now := requesttick.Now(ctx)
	var updated *models.Config
	err := s.tx.RunInTx(ctx, func(st store.Store) error {
		config, err := readConfig(ctx, st)
		if err != nil {
			return err
		}
		if err := requireAdmin(config, caller); err != nil {
			return err
		}

		apply(config)
		if err := st.PutConfig(ctx, config); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write config")
		}
		updated = config
		return s.emit(ctx, st, eventType, payload, now)
	})
	if err != nil {
		return nil, s.reject(op, start, err)
	}

	s.applied(op, start, eventType, 0)
	if s.logger != nil {
		s.logger.InfoContext(ctx, "ledger configuration updated",
			"operation", op,
			"paused", updated.Paused,
			"storage_fee", updated.StorageFee,
			"max_documents", updated.MaxDocuments,
		)
	}
	return updated, nil
}

// GetCredential returns the stored record, or nil without error when the
// hash is unknown.
func (s *Service) GetCredential(ctx context.Context, hash id.DocumentHash) (*models.Credential, error) {
	credential, err := s.reads.GetCredential(ctx, hash)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential")
	}
	return credential, nil
}

// TutorCredentialCount returns the lifetime number of documents a tutor has
// stored; unknown tutors count zero.
func (s *Service) TutorCredentialCount(ctx context.Context, tutor id.Principal) (uint64, error) {
	count, err := s.reads.CredentialCount(ctx, tutor)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read document count")
	}
	return count, nil
}

// VerificationStatus reports whether a credential is verified. This is the
// only place expiry is enforced: a lapsed credential answers with an expired
// error rather than its verification flag.
func (s *Service) VerificationStatus(ctx context.Context, hash id.DocumentHash) (bool, error) {
	credential, err := s.reads.GetCredential(ctx, hash)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.New(dErrors.CodeNotFound, "credential not found")
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential")
	}
	if credential.ExpiredAt(requesttick.Now(ctx)) {
		return false, dErrors.New(dErrors.CodeExpired, "credential has expired")
	}
	return credential.Verified, nil
}

// IsVerifier reports whether a principal is an active delegated verifier.
// Unknown principals are simply not verifiers.
func (s *Service) IsVerifier(ctx context.Context, principal id.Principal) (bool, error) {
	entry, err := s.reads.GetVerifier(ctx, principal)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read verifier entry")
	}
	return entry.Active, nil
}

// Config returns the current ledger configuration.
func (s *Service) Config(ctx context.Context) (*models.Config, error) {
	config, err := s.reads.GetConfig(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnavailable, "ledger is not configured")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read config")
	}
	return config, nil
}

// Events returns ledger events with IDs greater than afterID, oldest first.
// A non-positive limit returns everything.
func (s *Service) Events(ctx context.Context, afterID uint64, limit int) ([]*models.Event, error) {
	events, err := s.reads.ListEvents(ctx, afterID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	return events, nil
}

// collectFee checks the caller's balance and moves the fee to the admin
// account, in that order, before any ledger state changes. A failed
// transfer surfaces as insufficient balance when the channel says so, or as
// a channel failure otherwise.
func (s *Service) collectFee(ctx context.Context, caller, admin id.Principal, fee id.Amount) error {
	balance, err := s.payments.BalanceOf(ctx, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "payment channel unavailable")
	}
	if balance < fee {
		return dErrors.New(dErrors.CodeInvalidInput, "insufficient balance to cover the fee")
	}
	if err := s.payments.Transfer(ctx, caller, admin, fee); err != nil {
		if errors.Is(err, payments.ErrInsufficientFunds) {
			return dErrors.New(dErrors.CodeInvalidInput, "insufficient balance to cover the fee")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "fee transfer failed")
	}
	return nil
}

// refundOnFailure returns a collected fee after the surrounding transaction
// failed. Runs on a detached context so an already-cancelled request cannot
// strand the money.
func (s *Service) refundOnFailure(ctx context.Context, from, to id.Principal, amount id.Amount) {
	if amount == 0 || from.IsNil() {
		return
	}
	refundCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.payments.Transfer(refundCtx, from, to, amount); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "fee refund failed",
				"from", from,
				"to", to,
				"amount", amount,
				"error", err,
			)
		}
		return
	}
	if s.logger != nil {
		s.logger.WarnContext(ctx, "fee refunded after failed operation",
			"to", to,
			"amount", amount,
		)
	}
}

func (s *Service) emit(ctx context.Context, st store.Store, typ ledgerevents.EventType, payload string, now id.Tick) error {
	if _, err := st.AppendEvent(ctx, typ, payload, now); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record ledger event")
	}
	return nil
}

func (s *Service) applied(op string, start time.Time, eventType ledgerevents.EventType, fee uint64) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordApplied(op)
	s.metrics.ObserveDuration(op, time.Since(start).Seconds())
	s.metrics.RecordEvent(string(eventType))
	if fee > 0 {
		s.metrics.RecordFee(fee)
	}
}

func (s *Service) reject(op string, start time.Time, err error) error {
	if s.metrics != nil {
		s.metrics.RecordRejected(op, errorReason(err))
		s.metrics.ObserveDuration(op, time.Since(start).Seconds())
	}
	return err
}

func errorReason(err error) string {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return string(domainErr.Code)
	}
	return string(dErrors.CodeInternal)
}

func readConfig(ctx context.Context, st store.Store) (*models.Config, error) {
	config, err := st.GetConfig(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnavailable, "ledger is not configured")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read config")
	}
	return config, nil
}

func requireAdmin(config *models.Config, caller id.Principal) error {
	if caller != config.Admin {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the ledger admin")
	}
	return nil
}
