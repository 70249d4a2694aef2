package fnboot

import (
	"context"
	"fmt"
	"reflect"

	"github.com/junioryono/fnboot/internal/reflection"
)

// injector synthesizes the factory of a constructor registered without an
// explicit one. Each call resolves the constructor's parameters from the
// container, in the scope carried by ctx, and invokes it.
func (c *Container) injector(ctor *reflection.Constructor) Factory {
	return func(ctx context.Context) (any, error) {
		args, err := c.resolveArguments(ctx, ctor)
		if err != nil {
			return nil, err
		}

		return ctor.Call(args)
	}
}

func (c *Container) resolveArguments(ctx context.Context, ctor *reflection.Constructor) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(ctor.Parameters))

	for i, param := range ctor.Parameters {
		var (
			arg reflect.Value
			err error
		)

		switch {
		case param.Kind == reflection.ParamContext:
			arg = reflect.ValueOf(ctx)

		case param.Kind == reflection.ParamSlice && !c.Contains(param.Type):
			arg, err = c.resolveSlice(ctx, param)

		default:
			arg, err = c.resolveParameter(ctx, param)
		}

		if err != nil {
			return nil, fmt.Errorf("resolve parameter %d of %s: %w", i, formatType(ctor.Result), err)
		}

		args[i] = arg
	}

	return args, nil
}

func (c *Container) resolveParameter(ctx context.Context, param reflection.Parameter) (reflect.Value, error) {
	instance, err := c.getOne(ctx, param.Type, nil)
	if err != nil {
		return reflect.Value{}, err
	}

	return assignTo(instance, param.Type)
}

// resolveSlice resolves every registration of the element type into a typed
// slice. A single registration becomes a one-element slice.
func (c *Container) resolveSlice(ctx context.Context, param reflection.Parameter) (reflect.Value, error) {
	instances, err := c.getAll(ctx, param.ElemType, nil)
	if err != nil {
		return reflect.Value{}, err
	}

	slice := reflect.MakeSlice(param.Type, 0, len(instances))
	for _, instance := range instances {
		v, err := assignTo(instance, param.ElemType)
		if err != nil {
			return reflect.Value{}, err
		}
		slice = reflect.Append(slice, v)
	}

	return slice, nil
}

// getOne resolves key, which must have exactly one registration.
func (c *Container) getOne(ctx context.Context, key reflect.Type, scope *Scope) (any, error) {
	if n := c.Count(key); n > 1 {
		return nil, ResolutionError{
			ServiceType: key,
			Cause:       fmt.Errorf("%w (%d), resolve []%s instead", ErrMultipleRegistrations, n, formatType(key)),
		}
	}

	instances, err := c.getAll(ctx, key, scope)
	if err != nil {
		return nil, err
	}

	return instances[0], nil
}

// assignTo converts a resolved instance to a value of type t.
func assignTo(instance any, t reflect.Type) (reflect.Value, error) {
	if instance == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, newValidationError(t, fmt.Errorf("resolved nil for non-nillable type"))
	}

	v := reflect.ValueOf(instance)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, newValidationError(t,
			fmt.Errorf("resolved instance of type %s is not assignable", formatType(v.Type())))
	}

	return v, nil
}
