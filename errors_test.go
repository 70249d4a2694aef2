package fnboot_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/junioryono/fnboot"
	"github.com/junioryono/fnboot/internal/testutil"
)

func TestErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		message string
		is      error
	}{
		{
			name:    "resolution not found",
			err:     fnboot.ResolutionError{ServiceType: plainKey, Cause: fnboot.ErrServiceNotFound},
			message: "service not found: *Plain",
			is:      fnboot.ErrServiceNotFound,
		},
		{
			name:    "resolution with cause",
			err:     fnboot.ResolutionError{ServiceType: plainKey, Cause: fnboot.ErrScopeDisposed},
			message: "resolve *Plain: scope has been disposed",
			is:      fnboot.ErrScopeDisposed,
		},
		{
			name:    "validation",
			err:     fnboot.ValidationError{ServiceType: plainKey, Cause: fnboot.ErrScopeRequired},
			message: "*Plain: scoped services require an explicit scope",
			is:      fnboot.ErrScopeRequired,
		},
		{
			name:    "validation without type",
			err:     fnboot.ValidationError{Cause: fnboot.ErrServiceKeyNil},
			message: "service key cannot be nil",
			is:      fnboot.ErrServiceKeyNil,
		},
		{
			name:    "module",
			err:     fnboot.ModuleError{Module: "data", Cause: testutil.ErrTest},
			message: `module "data": test error`,
			is:      testutil.ErrTest,
		},
		{
			name:    "single disposal failure",
			err:     fnboot.DisposalError{Context: "scope", Errors: []error{testutil.ErrDisposal}},
			message: "scope disposal failed: disposal error",
			is:      testutil.ErrDisposal,
		},
		{
			name: "several disposal failures",
			err: fnboot.DisposalError{Context: "container", Errors: []error{
				testutil.ErrTest, testutil.ErrDisposal,
			}},
			message: "container disposal failed with 2 errors:\n  1. test error\n  2. disposal error",
			is:      testutil.ErrDisposal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.message, tt.err.Error())
			assert.ErrorIs(t, tt.err, tt.is)
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	t.Parallel()

	notFound := fmt.Errorf("wrapped: %w", fnboot.ResolutionError{ServiceType: plainKey, Cause: fnboot.ErrServiceNotFound})
	assert.True(t, fnboot.IsNotFound(notFound))
	assert.False(t, fnboot.IsValidation(notFound))

	validation := fmt.Errorf("wrapped: %w", fnboot.ValidationError{Cause: fnboot.ErrFactoryNil})
	assert.True(t, fnboot.IsValidation(validation))
	assert.False(t, fnboot.IsNotFound(validation))

	assert.False(t, fnboot.IsNotFound(errors.New("other")))
}

func TestPanicErrors(t *testing.T) {
	t.Parallel()

	ctorErr := fnboot.ConstructorPanicError{ServiceType: plainKey, Panic: "boom"}
	assert.Equal(t, "constructor for *Plain panicked: boom", ctorErr.Error())

	disposeErr := fnboot.DisposePanicError{Instance: "*testutil.Resource", Panic: "boom"}
	assert.Equal(t, "close of *testutil.Resource panicked: boom", disposeErr.Error())

	assert.Equal(t, "unknown service lifetime: 7", fnboot.LifetimeError{Value: 7}.Error())
}
