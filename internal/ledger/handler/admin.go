package handler

import (
	"context"
	"net/http"
	"strconv"

	"doceo/internal/clientinfo"
	"doceo/internal/ledger/tracer"
	id "doceo/pkg/domain"
	dErrors "doceo/pkg/domain-errors"
	"doceo/pkg/platform/httputil"
	"doceo/pkg/requestcontext"
)

const (
	defaultEventPageSize = 100
	maxEventPageSize     = 1000
)

func (h *Handler) handleAddVerifier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireCaller(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[AddVerifierRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	principal, err := req.ToPrincipal()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.ledger.AddVerifier(ctx, caller, principal)
	if err != nil {
		h.logger.WarnContext(ctx, "add verifier rejected",
			"request_id", requestID,
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logAdminAction(ctx, "verifier added", caller, "principal", principal)
	httputil.WriteJSON(w, http.StatusOK, toVerifierResponse(entry))
}

func (h *Handler) handleRemoveVerifier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireCaller(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	principal, err := principalParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.ledger.RemoveVerifier(ctx, caller, principal)
	if err != nil {
		h.logger.WarnContext(ctx, "remove verifier rejected",
			"request_id", requestID,
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logAdminAction(ctx, "verifier removed", caller, "principal", principal)
	httputil.WriteJSON(w, http.StatusOK, toVerifierResponse(entry))
}

func (h *Handler) handleSetPaused(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireCaller(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetPausedRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	config, err := h.ledger.SetPaused(ctx, caller, *req.Paused)
	if err != nil {
		h.logger.WarnContext(ctx, "set paused rejected",
			"request_id", requestID,
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logAdminAction(ctx, "ledger pause state updated", caller, "paused", config.Paused)
	httputil.WriteJSON(w, http.StatusOK, toConfigResponse(config))
}

func (h *Handler) handleSetStorageFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireCaller(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetStorageFeeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	config, err := h.ledger.SetStorageFee(ctx, caller, id.Amount(*req.Fee))
	if err != nil {
		h.logger.WarnContext(ctx, "set storage fee rejected",
			"request_id", requestID,
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logAdminAction(ctx, "storage fee updated", caller, "fee", config.StorageFee)
	httputil.WriteJSON(w, http.StatusOK, toConfigResponse(config))
}

func (h *Handler) handleSetMaxDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireCaller(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetMaxDocumentsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	config, err := h.ledger.SetMaxDocuments(ctx, caller, *req.MaxDocuments)
	if err != nil {
		h.logger.WarnContext(ctx, "set max documents rejected",
			"request_id", requestID,
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logAdminAction(ctx, "document limit updated", caller, "max_documents", config.MaxDocuments)
	httputil.WriteJSON(w, http.StatusOK, toConfigResponse(config))
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	afterID, err := queryUint(r, "after_id", 0)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := queryUint(r, "limit", defaultEventPageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if limit == 0 {
		limit = defaultEventPageSize
	}
	if limit > maxEventPageSize {
		limit = maxEventPageSize
	}

	events, err := h.ledger.Events(ctx, afterID, int(limit))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list events",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toEventsResponse(events))
}

// logAdminAction records a successful configuration change together with a
// coarse description of the admin's client, so config history can be traced
// without storing raw User-Agent values.
func (h *Handler) logAdminAction(ctx context.Context, msg string, caller id.Principal, attrs ...any) {
	userAgent := requestcontext.UserAgent(ctx)
	base := []any{
		"request_id", requestcontext.RequestID(ctx),
		"caller", caller,
		"client", clientinfo.Describe(userAgent),
		"client_fingerprint", clientinfo.Fingerprint(userAgent),
	}
	h.logger.InfoContext(ctx, msg, append(base, attrs...)...)
	h.emitAdminSpanEvent(ctx, msg, caller)
}

// emitAdminSpanEvent mirrors the admin log line onto the trace if a tracer
// is configured. The event rides a minimal span that ends immediately.
func (h *Handler) emitAdminSpanEvent(ctx context.Context, action string, caller id.Principal) {
	if h.tracer == nil {
		return
	}
	_, span := h.tracer.Start(ctx, "ledger.admin_action",
		tracer.String(tracer.AttrCaller, caller.String()),
	)
	if span != nil {
		span.AddEvent(tracer.EventAdminApplied,
			tracer.String("admin.action", action),
		)
		span.End(nil)
	}
}

func queryUint(r *http.Request, name string, fallback uint64) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeValidation, name+" must be a non-negative integer")
	}
	return v, nil
}
