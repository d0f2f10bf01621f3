package logging

import (
	"context"
	"log/slog"

	"showsync/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for sync run identifiers.
	FieldRunID = "run_id"
	// FieldCategoryID is the standardized structured logging key for playlist category identifiers.
	FieldCategoryID = "category_id"
	// FieldShowID is the standardized structured logging key for playlist show identifiers.
	FieldShowID = "show_id"
	// FieldShowTitle is the standardized structured logging key for show titles.
	FieldShowTitle = "show_title"
	// FieldPhase is the standardized structured logging key for state machine phases.
	FieldPhase = "phase"
	// FieldNamespace is the standardized structured logging key for cache namespaces.
	FieldNamespace = "namespace"
	// FieldErrorHint is the standardized structured logging key for operator next steps.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if id, ok := services.CategoryIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldCategoryID, id))
	}
	if title, ok := services.ShowTitleFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldShowTitle, title))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
