package logging

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

type ctxFields struct {
	tenantID string
	toolName string
	requestID string
}

// WithTenant attaches a tenant id to the context for log correlation.
// The raw tenant id is logged (it is a caller-chosen scope, not a secret).
func WithTenant(ctx context.Context, tenantID string) context.Context {
	f := fieldsFromCtx(ctx)
	f.tenantID = tenantID
	return context.WithValue(ctx, ctxKey{}, f)
}

// WithTool attaches the invoked tool name to the context.
func WithTool(ctx context.Context, toolName string) context.Context {
	f := fieldsFromCtx(ctx)
	f.toolName = toolName
	return context.WithValue(ctx, ctxKey{}, f)
}

// WithRequestID attaches a request correlation id to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	f := fieldsFromCtx(ctx)
	f.requestID = requestID
	return context.WithValue(ctx, ctxKey{}, f)
}

func fieldsFromCtx(ctx context.Context) ctxFields {
	if f, ok := ctx.Value(ctxKey{}).(ctxFields); ok {
		return f
	}
	return ctxFields{}
}

// ContextFields extracts zap fields recorded on the context via the With* helpers.
func ContextFields(ctx context.Context) []zap.Field {
	f := fieldsFromCtx(ctx)
	fields := make([]zap.Field, 0, 3)
	if f.tenantID != "" {
		fields = append(fields, zap.String("tenant_id", f.tenantID))
	}
	if f.toolName != "" {
		fields = append(fields, zap.String("tool", f.toolName))
	}
	if f.requestID != "" {
		fields = append(fields, zap.String("request_id", f.requestID))
	}
	return fields
}
