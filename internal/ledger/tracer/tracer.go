// Package tracer provides a lightweight tracing abstraction for the ledger.
//
// The interface keeps OpenTelemetry out of the service and payments code;
// production wires the OTel adapter, tests and memory-mode deployments run
// the noop.
package tracer

import (
	"context"
	"time"
)

// Span is one active region of work. End must be called exactly once,
// typically via defer; a non-nil error marks the span failed.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start opens a span and returns a context carrying it, which child
	// operations should receive.
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans and events.
type Attribute struct {
	Key   string
	Value any
}

// Typed attribute constructors. Duration flattens to whole milliseconds.

func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }

func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }

func Int64(key string, value int64) Attribute { return Attribute{Key: key, Value: value} }

func Float64(key string, value float64) Attribute { return Attribute{Key: key, Value: value} }

func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Uint64 carries tick and amount values. Values beyond int64 range are
// clamped; ledger ticks and fees never get there.
func Uint64(key string, value uint64) Attribute {
	v := int64(value)
	if v < 0 {
		v = int64(^uint64(0) >> 1)
	}
	return Attribute{Key: key, Value: v}
}

// Span names used by the ledger module.
const (
	SpanStoreCredential  = "ledger.store_credential"
	SpanVerifyCredential = "ledger.verify_credential"
	SpanRenewCredential  = "ledger.renew_credential"
	SpanBalanceOf        = "payments.balance_of"
	SpanTransfer         = "payments.transfer"
)

// Attribute keys used by the ledger module.
const (
	AttrCaller  = "ledger.caller"
	AttrHash    = "ledger.document_hash"
	AttrTick    = "ledger.tick"
	AttrAccount = "payments.account"
	AttrAmount  = "payments.amount"
)

// Event names used by the ledger module.
const (
	EventAdminApplied = "admin.applied"
)
