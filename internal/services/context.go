package services

import "context"

type contextKey string

const (
	runIDKey      contextKey = "run_id"
	categoryIDKey contextKey = "category_id"
	showTitleKey  contextKey = "show_title"
)

// WithRunID annotates context with the sync run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the sync run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCategoryID annotates context with the playlist category identifier.
func WithCategoryID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, categoryIDKey, id)
}

// CategoryIDFromContext extracts the playlist category identifier if present.
func CategoryIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(categoryIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithShowTitle annotates context with the show title being processed.
func WithShowTitle(ctx context.Context, title string) context.Context {
	if title == "" {
		return ctx
	}
	return context.WithValue(ctx, showTitleKey, title)
}

// ShowTitleFromContext returns the show title if present.
func ShowTitleFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(showTitleKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
