package fnboot

import (
	"context"
	"fmt"
)

type scopeContextKey struct{}

// CreateScope returns a new, empty scope.
func CreateScope() *Scope {
	return newScope()
}

// WithScope returns a copy of ctx whose current scope is s. Every invocation
// carries its own context, so concurrent invocations never observe each
// other's scope.
func WithScope(ctx context.Context, s *Scope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, scopeContextKey{}, s)
}

// CurrentScope returns the scope installed in ctx, or nil.
func CurrentScope(ctx context.Context) *Scope {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(scopeContextKey{}).(*Scope)
	return s
}

// ClearScope returns a copy of ctx without a current scope.
func ClearScope(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, scopeContextKey{}, (*Scope)(nil))
}

// DisposeScope releases every disposable instance created in s, newest first.
// Both Disposable and DisposableWithContext instances are closed; the latter
// receive ctx.
//
// Disposal is best-effort: failures, including panics, are collected and
// returned as a DisposalError after every instance has been visited. Each
// instance is disposed at most once, so disposing a scope again only
// releases instances created since. Entries stay in the scope.
func DisposeScope(ctx context.Context, s *Scope) error {
	if s == nil {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	return disposeAll(ctx, s.takeUndisposed(IsDisposable))
}

// DisposeScopeSync is the synchronous form of DisposeScope. It closes only
// Disposable instances. DisposableWithContext instances cannot be waited for
// by a synchronous caller; they are left untouched and returned as skipped so
// the caller can report them.
func DisposeScopeSync(s *Scope) (skipped []any, err error) {
	if s == nil {
		return nil, nil
	}

	err = disposeAll(context.Background(), s.takeUndisposed(isSyncDisposable))

	for _, v := range s.pending() {
		if _, ok := v.(DisposableWithContext); ok {
			skipped = append(skipped, v)
		}
	}

	return skipped, err
}

func isSyncDisposable(v any) bool {
	if _, ok := v.(DisposableWithContext); ok {
		return false
	}
	_, ok := v.(Disposable)
	return ok
}

func disposeAll(ctx context.Context, values []any) error {
	var errs []error
	for _, v := range values {
		if _, err := dispose(ctx, v); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", v, err))
		}
	}

	if len(errs) > 0 {
		return DisposalError{Context: "scope", Errors: errs}
	}
	return nil
}
