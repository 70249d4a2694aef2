// Package reflection analyzes constructor functions once, at registration
// time, into a typed description of what the container must resolve to call
// them.
package reflection

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var (
	errType = reflect.TypeOf((*error)(nil)).Elem()
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

var (
	ErrNotFunc          = errors.New("constructor must be a function")
	ErrVariadic         = errors.New("variadic constructors are not supported")
	ErrInvalidReturns   = errors.New("constructor must return (T) or (T, error)")
	ErrUntypedParameter = errors.New("parameter has no type annotation for automatic injection")
)

// ParamKind classifies how a constructor parameter is satisfied.
type ParamKind int

const (
	// ParamService is resolved directly by its declared type.
	ParamService ParamKind = iota

	// ParamSlice is a []T parameter; every registration of T is resolved and
	// passed as one slice.
	ParamSlice

	// ParamContext receives the resolving context.
	ParamContext
)

// Parameter describes one positional constructor parameter.
type Parameter struct {
	Index    int
	Type     reflect.Type
	Kind     ParamKind
	ElemType reflect.Type // element type when Kind is ParamSlice
}

// Constructor is the analyzed form of a constructor function.
type Constructor struct {
	Value          reflect.Value
	Type           reflect.Type
	Result         reflect.Type
	Parameters     []Parameter
	HasErrorReturn bool
}

// ParameterError reports an unusable parameter of a constructor.
type ParameterError struct {
	Constructor reflect.Type
	Index       int
	Cause       error
}

func (e ParameterError) Error() string {
	return fmt.Sprintf("parameter %d of %s: %v", e.Index, e.Constructor, e.Cause)
}

func (e ParameterError) Unwrap() error {
	return e.Cause
}

// Analyzer caches analysis results by function type. The cached description
// never carries a function value: closures of one literal and method values
// share a code pointer, so each call binds its own fn.
type Analyzer struct {
	mu    sync.RWMutex
	cache map[reflect.Type]*Constructor
}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{
		cache: make(map[reflect.Type]*Constructor),
	}
}

// Analyze inspects fn and returns its constructor description.
func (a *Analyzer) Analyze(fn any) (*Constructor, error) {
	val := reflect.ValueOf(fn)
	if !val.IsValid() {
		return nil, ErrNotFunc
	}

	typ := val.Type()
	if typ.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w, got %s", ErrNotFunc, typ)
	}
	if val.IsNil() {
		return nil, ErrNotFunc
	}

	a.mu.RLock()
	cached, ok := a.cache[typ]
	a.mu.RUnlock()

	if !ok {
		info, err := analyze(typ)
		if err != nil {
			return nil, err
		}

		a.mu.Lock()
		a.cache[typ] = info
		a.mu.Unlock()
		cached = info
	}

	bound := *cached
	bound.Value = val
	return &bound, nil
}

func analyze(typ reflect.Type) (*Constructor, error) {
	if typ.IsVariadic() {
		return nil, ErrVariadic
	}

	info := &Constructor{Type: typ}

	switch typ.NumOut() {
	case 1:
		info.Result = typ.Out(0)
	case 2:
		if typ.Out(1) != errType {
			return nil, ErrInvalidReturns
		}
		info.Result = typ.Out(0)
		info.HasErrorReturn = true
	default:
		return nil, ErrInvalidReturns
	}

	if info.Result == errType {
		return nil, ErrInvalidReturns
	}

	info.Parameters = make([]Parameter, typ.NumIn())
	for i := range typ.NumIn() {
		p, err := analyzeParameter(i, typ.In(i))
		if err != nil {
			return nil, ParameterError{Constructor: typ, Index: i, Cause: err}
		}
		info.Parameters[i] = p
	}

	return info, nil
}

func analyzeParameter(index int, t reflect.Type) (Parameter, error) {
	p := Parameter{Index: index, Type: t, Kind: ParamService}

	switch {
	case t == ctxType:
		p.Kind = ParamContext
	case isUntyped(t):
		return p, ErrUntypedParameter
	case t.Kind() == reflect.Slice:
		if isUntyped(t.Elem()) {
			return p, ErrUntypedParameter
		}
		p.Kind = ParamSlice
		p.ElemType = t.Elem()
	}

	return p, nil
}

// isUntyped reports whether t is the empty interface, which names no service.
func isUntyped(t reflect.Type) bool {
	return t.Kind() == reflect.Interface && t.NumMethod() == 0
}

// Call invokes the constructor with already-resolved arguments.
func (c *Constructor) Call(args []reflect.Value) (any, error) {
	out := c.Value.Call(args)

	if c.HasErrorReturn {
		if errVal := out[1]; !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
	}

	return out[0].Interface(), nil
}
