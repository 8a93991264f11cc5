package requesttick

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	id "doceo/pkg/domain"
)

// fakeSource returns a settable tick.
type fakeSource struct {
	tick id.Tick
}

func (s *fakeSource) Current() id.Tick { return s.tick }

func TestMiddleware_SetsTickInContext(t *testing.T) {
	src := &fakeSource{tick: 100000}

	var captured id.Tick
	handler := Middleware(src)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = Now(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, id.Tick(100000), captured)
}

func TestMiddleware_TickIsConsistentWithinRequest(t *testing.T) {
	src := &fakeSource{tick: 42}

	var firstRead, secondRead id.Tick
	handler := Middleware(src)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		firstRead = Now(r.Context())
		// Even if the source advances mid-request, the stamped tick holds.
		src.tick = 43
		secondRead = Now(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, firstRead, secondRead, "tick should be consistent within request")
	assert.Equal(t, id.Tick(42), firstRead)
}

func TestNow_FallbackToZero(t *testing.T) {
	assert.Equal(t, id.Tick(0), Now(context.Background()))
}

func TestWithTick_InjectsFixedTick(t *testing.T) {
	ctx := WithTick(context.Background(), 52560)
	assert.Equal(t, id.Tick(52560), Now(ctx))
}

func TestWithTick_OverridesExistingTick(t *testing.T) {
	ctx := WithTick(context.Background(), 1)
	ctx = WithTick(ctx, 2)
	assert.Equal(t, id.Tick(2), Now(ctx))
}
