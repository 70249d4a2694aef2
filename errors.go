package fnboot

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/junioryono/fnboot/internal/reflection"
)

// Sentinel errors. They are wrapped by the typed errors below; use errors.Is
// to test for them.
var (
	// Resolution errors.
	ErrServiceNotFound       = errors.New("service not found")
	ErrServiceKeyNil         = errors.New("service key cannot be nil")
	ErrScopeRequired         = errors.New("scoped services require an explicit scope")
	ErrMultipleRegistrations = errors.New("service has multiple registrations")

	// Lifecycle errors.
	ErrContainerShutdown = errors.New("container has been shut down")
	ErrScopeDisposed     = errors.New("scope has been disposed")

	// Validation errors.
	ErrFactoryNil       = errors.New("factory cannot be nil")
	ErrConstructorNil   = errors.New("constructor cannot be nil")
	ErrUntypedParameter = reflection.ErrUntypedParameter
	ErrInvalidService   = errors.New("service must be a constructor function or a Binding")
)

var (
	_ error = ResolutionError{}
	_ error = ValidationError{}
	_ error = LifetimeError{}
	_ error = DisposalError{}
	_ error = ModuleError{}
	_ error = ConstructorPanicError{}
	_ error = DisposePanicError{}
)

// ResolutionError reports a failed lookup of a service key.
type ResolutionError struct {
	ServiceType reflect.Type
	Cause       error
}

func (e ResolutionError) Error() string {
	if e.Cause == nil || errors.Is(e.Cause, ErrServiceNotFound) {
		return fmt.Sprintf("service not found: %s", formatType(e.ServiceType))
	}
	return fmt.Sprintf("resolve %s: %v", formatType(e.ServiceType), e.Cause)
}

func (e ResolutionError) Unwrap() error {
	return e.Cause
}

// ValidationError reports malformed usage of the container: a scoped
// resolution without a scope, an unusable constructor, and similar.
type ValidationError struct {
	ServiceType reflect.Type
	Cause       error
}

func (e ValidationError) Error() string {
	if e.ServiceType != nil {
		return fmt.Sprintf("%s: %v", formatType(e.ServiceType), e.Cause)
	}
	return e.Cause.Error()
}

func (e ValidationError) Unwrap() error {
	return e.Cause
}

// LifetimeError indicates a lifetime value outside Singleton, Transient and Scoped.
type LifetimeError struct {
	Value any
}

func (e LifetimeError) Error() string {
	return fmt.Sprintf("unknown service lifetime: %v", e.Value)
}

// DisposalError aggregates the failures of a best-effort disposal pass.
type DisposalError struct {
	Context string // "container", "scope"
	Errors  []error
}

func (e DisposalError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s disposal failed: %v", e.Context, e.Errors[0])
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s disposal failed with %d errors:", e.Context, len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
	}
	return sb.String()
}

func (e DisposalError) Unwrap() []error {
	return e.Errors
}

// ModuleError wraps errors from module registration.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error {
	return e.Cause
}

// ConstructorPanicError indicates a factory or constructor panicked.
type ConstructorPanicError struct {
	ServiceType reflect.Type
	Panic       any
	Stack       []byte
}

func (e ConstructorPanicError) Error() string {
	return fmt.Sprintf("constructor for %s panicked: %v", formatType(e.ServiceType), e.Panic)
}

// DisposePanicError indicates a Close method panicked during disposal.
type DisposePanicError struct {
	Instance string
	Panic    any
	Stack    []byte
}

func (e DisposePanicError) Error() string {
	return fmt.Sprintf("close of %s panicked: %v", e.Instance, e.Panic)
}

// IsNotFound reports whether err means a service key has no registration.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrServiceNotFound)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

func newValidationError(t reflect.Type, cause error) error {
	return ValidationError{ServiceType: t, Cause: cause}
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
