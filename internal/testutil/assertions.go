package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/fnboot"
)

// AssertServiceResolvable resolves T and fails the test on error.
func AssertServiceResolvable[T any](t *testing.T, ctx context.Context, c *fnboot.Container) T {
	t.Helper()
	service, err := fnboot.Resolve[T](ctx, c)
	require.NoError(t, err, "failed to resolve service of type %T", *new(T))
	return service
}

// AssertServiceNotFound checks that resolving T fails with a not found error.
func AssertServiceNotFound[T any](t *testing.T, ctx context.Context, c *fnboot.Container) {
	t.Helper()
	_, err := fnboot.Resolve[T](ctx, c)
	require.Error(t, err)
	assert.True(t, fnboot.IsNotFound(err), "expected service not found error, got: %v", err)
}

// AssertValidationError checks that err is a ValidationError.
func AssertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, fnboot.IsValidation(err), "expected validation error, got: %v", err)
}

// AssertScopeCount checks the number of instances held by scope.
func AssertScopeCount(t *testing.T, scope *fnboot.Scope, expected int) {
	t.Helper()
	assert.Equal(t, expected, scope.Len(), "unexpected number of scoped instances")
}
