// Package handler is the HTTP surface of the credential ledger. Handlers stay
// thin: decode and validate the request, call the service, translate domain
// errors. The authenticated principal and the request tick both arrive via
// middleware-populated context.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"doceo/internal/ledger/models"
	"doceo/internal/ledger/tracer"
	id "doceo/pkg/domain"
	dErrors "doceo/pkg/domain-errors"
	"doceo/pkg/platform/httputil"
	"doceo/pkg/requestcontext"
)

// Service defines the ledger operations the HTTP layer depends on.
type Service interface {
	StoreCredential(ctx context.Context, caller id.Principal, hash id.DocumentHash, title, description, metadataURI string) (*models.Credential, error)
	VerifyCredential(ctx context.Context, caller id.Principal, hash id.DocumentHash) (*models.Credential, error)
	RenewCredential(ctx context.Context, caller id.Principal, hash id.DocumentHash) (*models.Credential, error)
	AddVerifier(ctx context.Context, caller, principal id.Principal) (*models.VerifierEntry, error)
	RemoveVerifier(ctx context.Context, caller, principal id.Principal) (*models.VerifierEntry, error)
	SetPaused(ctx context.Context, caller id.Principal, paused bool) (*models.Config, error)
	SetStorageFee(ctx context.Context, caller id.Principal, fee id.Amount) (*models.Config, error)
	SetMaxDocuments(ctx context.Context, caller id.Principal, maxDocuments uint64) (*models.Config, error)
	GetCredential(ctx context.Context, hash id.DocumentHash) (*models.Credential, error)
	TutorCredentialCount(ctx context.Context, tutor id.Principal) (uint64, error)
	VerificationStatus(ctx context.Context, hash id.DocumentHash) (bool, error)
	IsVerifier(ctx context.Context, principal id.Principal) (bool, error)
	Config(ctx context.Context) (*models.Config, error)
	Events(ctx context.Context, afterID uint64, limit int) ([]*models.Event, error)
}

// Handler handles credential ledger endpoints.
type Handler struct {
	ledger Service
	tracer tracer.Tracer
	logger *slog.Logger
}

// Option configures optional Handler dependencies.
type Option func(*Handler)

// WithTracer sets the tracer used to mark admin actions on traces.
func WithTracer(t tracer.Tracer) Option {
	return func(h *Handler) {
		h.tracer = t
	}
}

// New creates a new ledger Handler.
func New(ledger Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		ledger: ledger,
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the tutor-facing and read routes. The parent router must
// apply principal authentication to this group.
func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials", h.handleStoreCredential)
	r.Post("/credentials/{hash}/verify", h.handleVerifyCredential)
	r.Post("/credentials/{hash}/renew", h.handleRenewCredential)
	r.Get("/credentials/{hash}", h.handleGetCredential)
	r.Get("/credentials/{hash}/status", h.handleCredentialStatus)
	r.Get("/tutors/{principal}/credential-count", h.handleTutorCredentialCount)
	r.Get("/verifiers/{principal}", h.handleVerifierStatus)
	r.Get("/config", h.handleGetConfig)
}

// RegisterAdmin registers the admin configuration routes. Admin authorization
// itself lives in the service; the routes only need an authenticated caller.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/verifiers", h.handleAddVerifier)
	r.Delete("/verifiers/{principal}", h.handleRemoveVerifier)
	r.Put("/paused", h.handleSetPaused)
	r.Put("/storage-fee", h.handleSetStorageFee)
	r.Put("/max-documents", h.handleSetMaxDocuments)
}

// RegisterInternal registers the service-to-service routes, gated by the
// parent router's API key middleware.
func (h *Handler) RegisterInternal(r chi.Router) {
	r.Get("/events", h.handleListEvents)
}

func (h *Handler) handleStoreCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireCaller(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[StoreCredentialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	hash, err := req.DocumentHash()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	credential, err := h.ledger.StoreCredential(ctx, caller, hash, req.Title, req.Description, req.MetadataURI)
	if err != nil {
		h.logger.WarnContext(ctx, "store credential rejected",
			"request_id", requestID,
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toCredentialResponse(credential))
}

func (h *Handler) handleVerifyCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireCaller(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	hash, err := hashParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	credential, err := h.ledger.VerifyCredential(ctx, caller, hash)
	if err != nil {
		h.logger.WarnContext(ctx, "verify credential rejected",
			"request_id", requestID,
			"caller", caller,
			"hash", hash.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCredentialResponse(credential))
}

func (h *Handler) handleRenewCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireCaller(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	hash, err := hashParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	credential, err := h.ledger.RenewCredential(ctx, caller, hash)
	if err != nil {
		h.logger.WarnContext(ctx, "renew credential rejected",
			"request_id", requestID,
			"caller", caller,
			"hash", hash.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCredentialResponse(credential))
}

func (h *Handler) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hash, err := hashParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	credential, err := h.ledger.GetCredential(ctx, hash)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read credential",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	// The ledger reads an unknown hash as empty; the HTTP resource maps
	// emptiness to 404.
	if credential == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "credential not found"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCredentialResponse(credential))
}

func (h *Handler) handleCredentialStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hash, err := hashParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	verified, err := h.ledger.VerificationStatus(ctx, hash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, StatusResponse{Hash: hash.String(), Verified: verified})
}

func (h *Handler) handleTutorCredentialCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tutor, err := principalParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	count, err := h.ledger.TutorCredentialCount(ctx, tutor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, CountResponse{Tutor: tutor.String(), Count: count})
}

func (h *Handler) handleVerifierStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, err := principalParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	active, err := h.ledger.IsVerifier(ctx, principal)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, VerifierStatusResponse{Principal: principal.String(), Active: active})
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	config, err := h.ledger.Config(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read config",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toConfigResponse(config))
}

func hashParam(r *http.Request) (id.DocumentHash, error) {
	return id.ParseDocumentHash(chi.URLParam(r, "hash"))
}

func principalParam(r *http.Request) (id.Principal, error) {
	return id.ParsePrincipal(chi.URLParam(r, "principal"))
}
