package tickclock

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "doceo/pkg/domain"
	dErrors "doceo/pkg/domain-errors"
	"doceo/pkg/platform/httputil"
	"doceo/pkg/requestcontext"
	"doceo/pkg/validation"
)

// Handler exposes the manual clock over HTTP so end-to-end runs can move
// time without restarting the process. Wall-clock deployments never mount it.
type Handler struct {
	clock  *Manual
	logger *slog.Logger
}

// NewHandler creates a clock handler over a manual tick source.
func NewHandler(clock *Manual, logger *slog.Logger) *Handler {
	return &Handler{clock: clock, logger: logger}
}

// Register mounts the clock routes on the given router. The parent router is
// expected to gate them behind service authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/clock", h.handleCurrent)
	r.Post("/clock/advance", h.handleAdvance)
	r.Put("/clock", h.handleSet)
}

// ClockResponse reports the manual clock's position.
type ClockResponse struct {
	Tick uint64 `json:"tick"`
}

// AdvanceClockRequest moves the clock forward by a tick count.
type AdvanceClockRequest struct {
	Ticks uint64 `json:"ticks" validate:"required,min=1"`
}

func (r *AdvanceClockRequest) Validate() error {
	return validation.Validate(r)
}

// SetClockRequest moves the clock to an absolute tick. The field is a pointer
// so an explicit zero survives required-field validation.
type SetClockRequest struct {
	Tick *uint64 `json:"tick" validate:"required"`
}

func (r *SetClockRequest) Validate() error {
	return validation.Validate(r)
}

func (h *Handler) handleCurrent(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, ClockResponse{Tick: uint64(h.clock.Current())})
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AdvanceClockRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	tick := h.clock.Advance(req.Ticks)
	h.logger.InfoContext(ctx, "manual clock advanced",
		"request_id", requestID,
		"delta", req.Ticks,
		"tick", tick,
	)
	httputil.WriteJSON(w, http.StatusOK, ClockResponse{Tick: uint64(tick)})
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SetClockRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.clock.Set(id.Tick(*req.Tick)); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "clock cannot move backwards"))
		return
	}
	h.logger.InfoContext(ctx, "manual clock set",
		"request_id", requestID,
		"tick", *req.Tick,
	)
	httputil.WriteJSON(w, http.StatusOK, ClockResponse{Tick: *req.Tick})
}
