package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doceo/internal/ledger/tracer"
)

func TestNoopSpansAreInert(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, tracer.SpanStoreCredential,
		tracer.String(tracer.AttrCaller, "tutor-1"),
		tracer.Uint64(tracer.AttrTick, 100000),
	)
	assert.Equal(t, ctx, newCtx, "noop must not grow the context")
	require.NotNil(t, span)

	span.SetAttributes(tracer.Bool("verified", true))
	span.AddEvent(tracer.EventAdminApplied, tracer.Int64("fee", 500000))
	span.End(nil)
}

func TestNoopSpanSwallowsError(t *testing.T) {
	tr := tracer.NewNoop()

	_, span := tr.Start(context.Background(), tracer.SpanTransfer)
	require.NotNil(t, span)

	span.End(errors.New("insufficient balance"))
}

func TestAttributeConstructors(t *testing.T) {
	cases := map[string]struct {
		attr  tracer.Attribute
		key   string
		value any
	}{
		"String":   {tracer.String("key", "value"), "key", "value"},
		"Bool":     {tracer.Bool("flag", true), "flag", true},
		"Int64":    {tracer.Int64("count", 42), "count", int64(42)},
		"Uint64":   {tracer.Uint64("tick", 52560), "tick", int64(52560)},
		"Float64":  {tracer.Float64("ratio", 3.14), "ratio", 3.14},
		"Duration": {tracer.Duration("latency", 150 * time.Millisecond), "latency", int64(150)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.key, tc.attr.Key)
			assert.Equal(t, tc.value, tc.attr.Value)
		})
	}

	t.Run("Uint64 clamps past int64 range", func(t *testing.T) {
		assert.Equal(t, int64(^uint64(0)>>1), tracer.Uint64("tick", ^uint64(0)).Value)
	})
}
