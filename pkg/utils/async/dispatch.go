package async

import (
	"context"

	"github.com/doctriage-lab/grammateus/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Dispatch runs handler in a new goroutine under a fresh background context,
// so it survives cancellation of the request that spawned it. The logger is
// carried over from ctx, and name identifies the task in failure logs.
func Dispatch(ctx context.Context, name string, handler func(ctx context.Context) error) {
	bgCtx := context.Background()
	if logger := logging.From(ctx); logger != nil {
		bgCtx = logging.With(bgCtx, logger)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in background task", "task", name, "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			logging.From(bgCtx).Error("background task failed", "task", name, "error", goerr.Unwrap(err))
		}
	}()
}
