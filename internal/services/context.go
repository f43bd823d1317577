package services

import "context"

type contextKey string

const (
	runIDKey contextKey = "run_id"
	stageKey contextKey = "stage"
	signKey  contextKey = "sign"
)

// WithRunID annotates context with the production run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the production run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	return v, ok && v != ""
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext extracts the pipeline stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(stageKey).(string)
	return v, ok && v != ""
}

// WithSign annotates context with the zodiac sign being produced.
func WithSign(ctx context.Context, sign string) context.Context {
	if sign == "" {
		return ctx
	}
	return context.WithValue(ctx, signKey, sign)
}

// SignFromContext extracts the zodiac sign if present.
func SignFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(signKey).(string)
	return v, ok && v != ""
}
