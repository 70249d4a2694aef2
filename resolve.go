package fnboot

import (
	"context"
	"fmt"
	"reflect"
)

// KeyOf returns the service key of T. For interfaces it is the interface type
// itself, not the type of a value implementing it.
func KeyOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Resolve resolves T in the scope carried by ctx, if any. T must have exactly
// one registration; use ResolveAll for multi-bound keys.
func Resolve[T any](ctx context.Context, c *Container) (T, error) {
	return ResolveIn[T](ctx, c, nil)
}

// ResolveIn resolves T in scope.
func ResolveIn[T any](ctx context.Context, c *Container, scope *Scope) (T, error) {
	var zero T

	instance, err := c.getOne(ctx, KeyOf[T](), scope)
	if err != nil {
		return zero, err
	}

	if instance == nil {
		return zero, nil
	}

	result, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("type assertion failed: expected %T, got %T", zero, instance)
	}

	return result, nil
}

// ResolveAll resolves every registration of T in registration order.
func ResolveAll[T any](ctx context.Context, c *Container) ([]T, error) {
	instances, err := c.getAll(ctx, KeyOf[T](), nil)
	if err != nil {
		return nil, err
	}

	results := make([]T, 0, len(instances))
	for i, instance := range instances {
		if instance == nil {
			results = append(results, *new(T))
			continue
		}

		result, ok := instance.(T)
		if !ok {
			return nil, fmt.Errorf("type assertion failed for item %d: expected %T, got %T",
				i, *new(T), instance)
		}
		results = append(results, result)
	}

	return results, nil
}

// MustResolve resolves T and panics on error.
func MustResolve[T any](ctx context.Context, c *Container) T {
	result, err := Resolve[T](ctx, c)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s: %v", formatType(KeyOf[T]()), err))
	}
	return result
}

// IsRegistered reports whether T has at least one registration.
func IsRegistered[T any](c *Container) bool {
	return c.Contains(KeyOf[T]())
}
