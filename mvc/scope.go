package mvc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/junioryono/fnboot"
	"github.com/junioryono/fnboot/function"
)

// WrapWithScope wraps a trigger handler so every invocation runs in a fresh
// scope. The scope is installed in the invocation context, seeded with the
// *function.Invocation, and disposed once the handler returns or panics. The
// handler's result, error and panic reach the caller unchanged.
//
// A function.Handler is wrapped into a function.Handler whose scope is
// disposed with DisposeScope, using a context that outlives cancellation of
// the invocation. A function.SyncHandler is wrapped into a
// function.SyncHandler whose scope is disposed with DisposeScopeSync;
// context-aware disposables it cannot close are reported as warnings.
//
// Any other handler fails with a ValidationError.
func WrapWithScope(handler any, logger *slog.Logger) (any, error) {
	if logger == nil {
		logger = slog.Default()
	}

	asyncHandler, syncHandler, err := function.Classify(handler)
	if err != nil {
		return nil, fnboot.ValidationError{Cause: err}
	}

	if asyncHandler != nil {
		return wrapAsync(asyncHandler, logger), nil
	}
	return wrapSync(syncHandler, logger), nil
}

var invocationKey = fnboot.KeyOf[*function.Invocation]()

func wrapAsync(handler function.Handler, logger *slog.Logger) function.Handler {
	return func(ctx context.Context, inv *function.Invocation) (any, error) {
		if inv == nil {
			inv = function.NewInvocation()
		}

		scope := fnboot.CreateScope()
		ctx = fnboot.WithScope(ctx, scope)
		inv = inv.WithContext(ctx)
		_ = scope.Put(invocationKey, inv)

		defer func() {
			if err := fnboot.DisposeScope(context.WithoutCancel(ctx), scope); err != nil {
				logger.ErrorContext(ctx, "failed to dispose scope",
					"scope", scope.ID(),
					"function", inv.FunctionName,
					"invocation", inv.ID,
					"error", err)
			}
		}()

		return handler(ctx, inv)
	}
}

func wrapSync(handler function.SyncHandler, logger *slog.Logger) function.SyncHandler {
	return func(inv *function.Invocation) (any, error) {
		if inv == nil {
			inv = function.NewInvocation()
		}

		scope := fnboot.CreateScope()
		inv = inv.WithContext(fnboot.WithScope(inv.Context(), scope))
		_ = scope.Put(invocationKey, inv)

		defer func() {
			skipped, err := fnboot.DisposeScopeSync(scope)
			for _, instance := range skipped {
				logger.Warn("context-aware disposable not closed by synchronous handler",
					"scope", scope.ID(),
					"function", inv.FunctionName,
					"instance", fmt.Sprintf("%T", instance))
			}
			if err != nil {
				logger.Error("failed to dispose scope",
					"scope", scope.ID(),
					"function", inv.FunctionName,
					"invocation", inv.ID,
					"error", err)
			}
		}()

		result, err := handler(inv)
		if function.IsPending(result) {
			logger.Warn("synchronous handler returned pending work that will not be awaited",
				"function", inv.FunctionName,
				"result", fmt.Sprintf("%T", result))
		}
		return result, err
	}
}
