// Package net provides utilities for working with request contexts
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const keyFunction ctxKey = "function"

// WithRequest annotates context with common request scoped ids
func WithRequest(ctx context.Context, reqID, function string) context.Context {
	if reqID != "" {
		// set chi RequestID so chimw.GetReqID can retrieve it
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	if function != "" {
		ctx = context.WithValue(ctx, keyFunction, function)
	}
	return ctx
}

// WithFunction annotates context with the invoked function name
func WithFunction(ctx context.Context, function string) context.Context {
	if function != "" {
		ctx = context.WithValue(ctx, keyFunction, function)
	}
	return ctx
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	if v := chimw.GetReqID(ctx); v != "" {
		return v
	}
	return ""
}

// Function returns the invoked function name on the context if present
func Function(ctx context.Context) string {
	if v, ok := ctx.Value(keyFunction).(string); ok {
		return v
	}
	return ""
}
