// Package fnboot provides a dependency injection container for function
// hosts, with automatic per-invocation scoping.
//
// # Overview
//
// The container registers services under a key, the reflect.Type of the
// service, and resolves them according to one of three lifetimes:
//
//   - Singleton: created once and shared for the lifetime of the container
//   - Scoped: created once per scope, typically one trigger invocation
//   - Transient: created every time the service is resolved
//
// # Basic Usage
//
//	c := fnboot.New()
//	c.AddSingleton(NewHTTPClient)
//	c.AddScoped(NewUnitOfWork)
//	c.AddTransient(NewRequestID)
//	defer c.Shutdown(context.Background())
//
//	scope := fnboot.CreateScope()
//	ctx := fnboot.WithScope(context.Background(), scope)
//	defer fnboot.DisposeScope(ctx, scope)
//
//	uow, err := fnboot.Resolve[*UnitOfWork](ctx, c)
//
// # Constructor Injection
//
// A constructor registered without an explicit factory has its parameters
// resolved from the container:
//
//	func NewUserService(repo UserRepository, clock Clock) *UserService {
//	    return &UserService{repo: repo, clock: clock}
//	}
//
// A context.Context parameter receives the resolving context, and a []T
// parameter receives every registration of T in registration order.
// Parameters typed as the empty interface name no service and are rejected
// at registration.
//
// # Explicit Factories
//
// Bind and BindKey attach a factory to a key. The factory receives the
// resolving context and may resolve further services from it:
//
//	c.AddScoped(fnboot.Bind(func(ctx context.Context) (*Session, error) {
//	    store, err := fnboot.Resolve[*SessionStore](ctx, c)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return store.Open(ctx)
//	}))
//
// # Multi-Binding
//
// Registering the same key more than once binds several implementations.
// GetService then returns a []any in registration order, and ResolveAll
// returns a typed slice.
//
// # Scopes
//
// The current scope travels in a context.Context (WithScope, CurrentScope,
// ClearScope), so concurrent invocations each see their own scope. Scoped
// services resolved without a scope fail with a ValidationError.
//
// # Disposal
//
// Services implementing Disposable or DisposableWithContext are closed when
// their owner ends: scoped instances by DisposeScope, singletons by
// Container.Shutdown. Disposal runs newest first and is best-effort; every
// failure is collected into a DisposalError.
package fnboot
