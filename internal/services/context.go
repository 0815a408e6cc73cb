package services

import "context"

type contextKey string

const (
	itemIDKey contextKey = "item_id"
	rootIDKey contextKey = "root_id"
	runIDKey  contextKey = "run_id"
)

// WithItemID annotates context with a catalog item identifier.
func WithItemID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, itemIDKey, id)
}

// ItemIDFromContext extracts the catalog item identifier if present.
func ItemIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(itemIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRootID annotates context with a series root identifier.
func WithRootID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, rootIDKey, id)
}

// RootIDFromContext extracts the series root identifier if present.
func RootIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(rootIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
