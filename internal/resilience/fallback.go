package resilience

import (
	"context"

	"go.uber.org/zap"
)

// Attempt is one stage of an ordered fallback sequence. Run returns the
// produced value and whether the stage produced anything. An error means the
// stage itself failed; it is logged and treated the same as producing
// nothing, so the next stage is still tried.
type Attempt[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, bool, error)
}

// FirstSuccess tries attempts strictly in order and returns the first value
// produced along with the name of the stage that produced it. Later stages
// only run when earlier ones come up empty. Stage failures never abort the
// sequence; only context cancellation does. Returns ok=false when every
// stage produced nothing.
func FirstSuccess[T any](ctx context.Context, what string, attempts []Attempt[T]) (T, string, bool) {
	var zero T
	for _, a := range attempts {
		if ctx.Err() != nil {
			return zero, "", false
		}

		val, ok, err := a.Run(ctx)
		if err != nil {
			zap.L().Debug("fallback stage failed",
				zap.String("sequence", what),
				zap.String("stage", a.Name),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			zap.L().Debug("fallback stage empty",
				zap.String("sequence", what),
				zap.String("stage", a.Name),
			)
			continue
		}

		return val, a.Name, true
	}
	return zero, "", false
}
