package services

import "context"

// Distinct key types keep values from colliding with other packages.
type (
	itemIDKey   struct{}
	sourceIDKey struct{}
	stageKey    struct{}
	runIDKey    struct{}
)

// withValue stores v unless it is the zero value, so callers can pass
// whatever they have without checking.
func withValue[K any, V comparable](ctx context.Context, key K, v V) context.Context {
	var zero V
	if v == zero {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func valueOf[V comparable](ctx context.Context, key any) (V, bool) {
	v, ok := ctx.Value(key).(V)
	var zero V
	return v, ok && v != zero
}

// WithItemID tags ctx with the local record id of the video being processed.
func WithItemID(ctx context.Context, id int64) context.Context {
	return withValue(ctx, itemIDKey{}, id)
}

func ItemIDFromContext(ctx context.Context) (int64, bool) {
	return valueOf[int64](ctx, itemIDKey{})
}

// WithSourceID tags ctx with the Drive file id of the video.
func WithSourceID(ctx context.Context, id string) context.Context {
	return withValue(ctx, sourceIDKey{}, id)
}

func SourceIDFromContext(ctx context.Context) (string, bool) {
	return valueOf[string](ctx, sourceIDKey{})
}

// WithStage tags ctx with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey{}, stage)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return valueOf[string](ctx, stageKey{})
}

// WithRunID tags ctx with the batch run id; every log line of a run carries
// it as run_id.
func WithRunID(ctx context.Context, id string) context.Context {
	return withValue(ctx, runIDKey{}, id)
}

func RunIDFromContext(ctx context.Context) (string, bool) {
	return valueOf[string](ctx, runIDKey{})
}
