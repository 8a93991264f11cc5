// Package requestcontext carries request-scoped values (request ID, client
// metadata, authenticated caller) through context without import cycles
// between middleware, handlers, and services.
package requestcontext

import (
	"context"

	id "doceo/pkg/domain"
)

type contextKeyRequestID struct{}
type contextKeyClientIP struct{}
type contextKeyUserAgent struct{}
type contextKeyCaller struct{}
type contextKeyService struct{}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID{}, requestID)
}

// RequestID retrieves the request ID from the context, or "" if unset.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyRequestID{}).(string); ok {
		return v
	}
	return ""
}

// WithClientMetadata stores the client IP and User-Agent in the context.
func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, contextKeyClientIP{}, ip)
	return context.WithValue(ctx, contextKeyUserAgent{}, userAgent)
}

// ClientIP retrieves the client IP from the context, or "" if unset.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyClientIP{}).(string); ok {
		return v
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context, or "" if unset.
func UserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyUserAgent{}).(string); ok {
		return v
	}
	return ""
}

// WithCaller stores the authenticated principal in the context.
// Set by the JWT auth middleware; read by handlers.
func WithCaller(ctx context.Context, caller id.Principal) context.Context {
	return context.WithValue(ctx, contextKeyCaller{}, caller)
}

// Caller retrieves the authenticated principal from the context.
// Returns the zero Principal if the request is unauthenticated.
func Caller(ctx context.Context) id.Principal {
	if v, ok := ctx.Value(contextKeyCaller{}).(id.Principal); ok {
		return v
	}
	return ""
}

// WithService stores the authenticated sibling-service name in the context.
// Set by the API key middleware on internal endpoints.
func WithService(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, contextKeyService{}, name)
}

// Service retrieves the authenticated sibling-service name, or "" if unset.
func Service(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyService{}).(string); ok {
		return v
	}
	return ""
}
