package fnboot

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
)

// Factory creates one instance of a service. The context carries the scope the
// resolution runs in, so factories may resolve further services from it.
type Factory func(ctx context.Context) (any, error)

// Binding pairs a service key with an explicit factory. Pass it to
// AddSingleton, AddTransient or AddScoped instead of a constructor function.
type Binding struct {
	Key     reflect.Type
	Factory Factory
}

// Bind creates a Binding for T from a typed factory.
//
// Example:
//
//	c.AddSingleton(fnboot.Bind(func(ctx context.Context) (Clock, error) {
//	    return systemClock{}, nil
//	}))
func Bind[T any](f func(ctx context.Context) (T, error)) Binding {
	if f == nil {
		return Binding{Key: KeyOf[T]()}
	}
	return Binding{
		Key: KeyOf[T](),
		Factory: func(ctx context.Context) (any, error) {
			return f(ctx)
		},
	}
}

// BindKey creates a Binding for an arbitrary key.
func BindKey(key reflect.Type, f Factory) Binding {
	return Binding{Key: key, Factory: f}
}

// Instance creates a Binding that always yields v. Registered as a singleton
// it behaves like a pre-built instance.
func Instance[T any](v T) Binding {
	return Binding{
		Key: KeyOf[T](),
		Factory: func(context.Context) (any, error) {
			return v, nil
		},
	}
}

// registration is one (factory, lifetime) pair stored under a key. It is
// immutable once added, apart from the lazily filled singleton cell.
type registration struct {
	key      reflect.Type
	index    int
	factory  Factory
	lifetime Lifetime

	singleton instanceCell
}

// instanceCell holds a lazily created instance. Construction runs at most once
// successfully; a failed construction leaves the cell empty.
type instanceCell struct {
	mu    sync.Mutex
	ready atomic.Bool
	value any
}

// load returns the cell's value, creating it with create if needed. created is
// true only for the call that performed the construction.
func (c *instanceCell) load(ctx context.Context, create Factory) (value any, created bool, err error) {
	if c.ready.Load() {
		return c.value, false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready.Load() {
		return c.value, false, nil
	}

	v, err := create(ctx)
	if err != nil {
		return nil, false, err
	}

	c.value = v
	c.ready.Store(true)
	return v, true, nil
}

// set stores v unconditionally.
func (c *instanceCell) set(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.ready.Store(true)
}

// store is the service registration store: per key, an ordered list of
// registrations.
type store struct {
	mu       sync.RWMutex
	services map[reflect.Type][]*registration
	keys     []reflect.Type
}

func newStore() *store {
	return &store{
		services: make(map[reflect.Type][]*registration),
	}
}

func (s *store) add(key reflect.Type, factory Factory, lifetime Lifetime) *registration {
	s.mu.Lock()
	defer s.mu.Unlock()

	regs, exists := s.services[key]
	if !exists {
		s.keys = append(s.keys, key)
	}

	reg := &registration{
		key:      key,
		index:    len(regs),
		factory:  factory,
		lifetime: lifetime,
	}
	s.services[key] = append(regs, reg)
	return reg
}

// get returns the registrations for key in insertion order.
func (s *store) get(key reflect.Type) []*registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.services[key]
}

func (s *store) all() []*registration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var regs []*registration
	for _, key := range s.keys {
		regs = append(regs, s.services[key]...)
	}
	return regs
}

func (s *store) keyList() []reflect.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]reflect.Type(nil), s.keys...)
}
