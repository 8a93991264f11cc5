package tracer

import "context"

// NoopTracer discards all spans. The default for tests and for
// deployments without a trace collector.
type NoopTracer struct{}

func NewNoop() *NoopTracer { return &NoopTracer{} }

// Start returns the context unchanged and a span that ignores everything.
func (*NoopTracer) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error)                     {}
func (noopSpan) SetAttributes(...Attribute)    {}
func (noopSpan) AddEvent(string, ...Attribute) {}

var (
	_ Tracer = (*NoopTracer)(nil)
	_ Span   = noopSpan{}
)
