package fnboot

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/junioryono/fnboot/internal/reflection"
)

// Container is the dependency injection container. It owns the registration
// store and the singleton cache, resolves services according to their
// lifetime and disposes singletons on Shutdown.
//
// Registration is expected to happen during startup, but all methods are
// safe for concurrent use.
type Container struct {
	store    *store
	analyzer *reflection.Analyzer
	logger   *slog.Logger

	// singletons created so far, in creation order
	created   []*registration
	createdMu sync.Mutex

	shutdown atomic.Bool
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used to report disposal failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an empty Container.
//
// Example:
//
//	c := fnboot.New()
//	c.AddSingleton(NewConfig)
//	c.AddScoped(NewUnitOfWork)
//	c.AddTransient(NewHasher)
//
//	svc, err := fnboot.Resolve[*UnitOfWork](ctx, c)
func New(opts ...Option) *Container {
	c := &Container{
		store:    newStore(),
		analyzer: reflection.New(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// AddSingleton registers a service created once per container.
//
// service is either a constructor function, whose parameters are resolved
// from the container, or a Binding carrying an explicit factory.
func (c *Container) AddSingleton(service any, opts ...AddOption) error {
	return c.add(service, Singleton, opts...)
}

// AddTransient registers a service created on every resolution.
func (c *Container) AddTransient(service any, opts ...AddOption) error {
	return c.add(service, Transient, opts...)
}

// AddScoped registers a service created once per scope.
func (c *Container) AddScoped(service any, opts ...AddOption) error {
	return c.add(service, Scoped, opts...)
}

// AddService appends a registration for key. Registering the same key more
// than once binds several implementations, resolved together in registration
// order.
//
// The lifetime is not checked here; resolving a registration with an unknown
// lifetime fails with a ValidationError. Use Validate to check early.
func (c *Container) AddService(key reflect.Type, factory Factory, lifetime Lifetime) error {
	if c.shutdown.Load() {
		return ErrContainerShutdown
	}

	if key == nil {
		return newValidationError(nil, ErrServiceKeyNil)
	}

	if factory == nil {
		return newValidationError(key, ErrFactoryNil)
	}

	c.store.add(key, factory, lifetime)
	return nil
}

// AddModules applies one or more modules to the container.
func (c *Container) AddModules(modules ...ModuleOption) error {
	for _, module := range modules {
		if module == nil {
			continue
		}

		if err := module(c); err != nil {
			return err
		}
	}

	return nil
}

func (c *Container) add(service any, lifetime Lifetime, opts ...AddOption) error {
	options := &addOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	key, factory, err := c.bind(service, options)
	if err != nil {
		return err
	}

	return c.AddService(key, factory, lifetime)
}

// bind turns a constructor or Binding into a key and factory.
func (c *Container) bind(service any, options *addOptions) (reflect.Type, Factory, error) {
	switch s := service.(type) {
	case nil:
		return nil, nil, newValidationError(options.key, ErrConstructorNil)

	case Binding:
		return bindingKey(s, options)

	case *Binding:
		if s == nil {
			return nil, nil, newValidationError(options.key, ErrConstructorNil)
		}
		return bindingKey(*s, options)

	case Factory:
		if options.key == nil {
			return nil, nil, newValidationError(nil, fmt.Errorf("%w: a Factory needs a key, use As or BindKey", ErrInvalidService))
		}
		return options.key, s, nil
	}

	ctor, err := c.analyzer.Analyze(service)
	if err != nil {
		return nil, nil, newValidationError(options.key, fmt.Errorf("%w: %w", ErrInvalidService, err))
	}

	key := ctor.Result
	if options.key != nil {
		if !assignableKey(ctor.Result, options.key) {
			return nil, nil, newValidationError(options.key,
				fmt.Errorf("constructor result %s does not implement %s", formatType(ctor.Result), formatType(options.key)))
		}
		key = options.key
	}

	return key, c.injector(ctor), nil
}

func bindingKey(b Binding, options *addOptions) (reflect.Type, Factory, error) {
	key := b.Key
	if options.key != nil {
		key = options.key
	}

	if b.Factory == nil {
		return nil, nil, newValidationError(key, ErrFactoryNil)
	}

	return key, b.Factory, nil
}

func assignableKey(result, key reflect.Type) bool {
	if key.Kind() == reflect.Interface {
		return result.Implements(key)
	}
	return result == key
}

// GetService resolves key.
//
// With a single registration the instance itself is returned; with several,
// a []any holding every instance in registration order. Scoped registrations
// resolve in scope when it is non-nil, otherwise in the scope carried by ctx.
func (c *Container) GetService(ctx context.Context, key reflect.Type, scope *Scope) (any, error) {
	instances, err := c.getAll(ctx, key, scope)
	if err != nil {
		return nil, err
	}

	if len(instances) == 1 {
		return instances[0], nil
	}

	return instances, nil
}

// getAll resolves every registration of key, always as a slice.
func (c *Container) getAll(ctx context.Context, key reflect.Type, scope *Scope) ([]any, error) {
	if c.shutdown.Load() {
		return nil, ErrContainerShutdown
	}

	if key == nil {
		return nil, newValidationError(nil, ErrServiceKeyNil)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if scope == nil {
		scope = CurrentScope(ctx)
	} else if CurrentScope(ctx) != scope {
		ctx = WithScope(ctx, scope)
	}

	regs := c.store.get(key)
	if len(regs) == 0 {
		if scope != nil {
			if seeded, ok := scope.seeded(key); ok {
				return []any{seeded}, nil
			}
		}
		return nil, ResolutionError{ServiceType: key, Cause: ErrServiceNotFound}
	}

	instances := make([]any, len(regs))
	for i, reg := range regs {
		instance, err := c.resolve(ctx, reg, scope)
		if err != nil {
			return nil, err
		}
		instances[i] = instance
	}

	return instances, nil
}

// resolve applies the lifetime policy of one registration.
func (c *Container) resolve(ctx context.Context, reg *registration, scope *Scope) (any, error) {
	create := func(ctx context.Context) (any, error) {
		return c.create(ctx, reg)
	}

	switch reg.lifetime {
	case Singleton:
		instance, created, err := reg.singleton.load(ctx, create)
		if err != nil {
			return nil, err
		}
		if created {
			c.createdMu.Lock()
			c.created = append(c.created, reg)
			c.createdMu.Unlock()
		}
		return instance, nil

	case Transient:
		return create(ctx)

	case Scoped:
		if scope == nil {
			return nil, newValidationError(reg.key, ErrScopeRequired)
		}
		return scope.load(ctx, slotKey{Type: reg.key, Index: reg.index}, create)

	default:
		return nil, newValidationError(reg.key, LifetimeError{Value: int(reg.lifetime)})
	}
}

// create runs the registration's factory, turning panics into errors.
func (c *Container) create(ctx context.Context, reg *registration) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			instance = nil
			err = ConstructorPanicError{ServiceType: reg.key, Panic: r, Stack: debug.Stack()}
		}
	}()

	return reg.factory(ctx)
}

// Contains reports whether key has at least one registration.
func (c *Container) Contains(key reflect.Type) bool {
	return len(c.store.get(key)) > 0
}

// Count returns the number of registrations for key.
func (c *Container) Count(key reflect.Type) int {
	return len(c.store.get(key))
}

// Keys returns every registered key in first-registration order.
func (c *Container) Keys() []reflect.Type {
	return c.store.keyList()
}

// Validate checks every registration's lifetime.
func (c *Container) Validate() error {
	for _, reg := range c.store.all() {
		if !reg.lifetime.IsValid() {
			return newValidationError(reg.key, LifetimeError{Value: int(reg.lifetime)})
		}
	}
	return nil
}

// Shutdown disposes every singleton created so far, newest first.
//
// Disposal is best-effort: a failing or panicking Close is logged and
// collected, and the remaining singletons are still disposed. The collected
// failures are returned as a DisposalError. After Shutdown the container
// refuses further registrations and resolutions; calling it again is a no-op.
func (c *Container) Shutdown(ctx context.Context) error {
	if !c.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	c.createdMu.Lock()
	created := c.created
	c.created = nil
	c.createdMu.Unlock()

	var errs []error
	for i := len(created) - 1; i >= 0; i-- {
		reg := created[i]
		if _, err := dispose(ctx, reg.singleton.value); err != nil {
			c.logger.ErrorContext(ctx, "failed to dispose singleton",
				"service", formatType(reg.key),
				"error", err)
			errs = append(errs, fmt.Errorf("%s: %w", formatType(reg.key), err))
		}
	}

	if len(errs) > 0 {
		return DisposalError{Context: "container", Errors: errs}
	}

	return nil
}

// IsShutdown reports whether Shutdown has been called.
func (c *Container) IsShutdown() bool {
	return c.shutdown.Load()
}

// An AddOption modifies how AddSingleton, AddTransient and AddScoped register
// a service.
type AddOption func(*addOptions)

type addOptions struct {
	key reflect.Type
}

// As registers the service under the key of T instead of the constructor's
// result type. T is usually an interface the result implements.
//
// Example:
//
//	c.AddScoped(NewSQLUserRepository, fnboot.As[UserRepository]())
func As[T any]() AddOption {
	return AsKey(KeyOf[T]())
}

// AsKey registers the service under key.
func AsKey(key reflect.Type) AddOption {
	return func(o *addOptions) {
		o.key = key
	}
}
