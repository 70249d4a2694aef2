package function

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RouteConfig configures an HTTP route trigger.
type RouteConfig struct {
	Name    string
	Route   string   // chi pattern, e.g. "/users/{id}"
	Methods []string // defaults to GET
}

// TimerConfig configures a timer trigger.
type TimerConfig struct {
	Name string

	// Schedule is a cron expression with a leading seconds field, e.g.
	// "0 */5 * * * *", or a descriptor such as "@every 1m".
	Schedule     string
	RunOnStartup bool
}

// QueueConfig configures a queue trigger.
type QueueConfig struct {
	Name  string
	Queue string
}

// Retry strategies.
const (
	FixedDelay         = "fixed_delay"
	ExponentialBackoff = "exponential_backoff"
)

// RetryPolicy controls how failed timer and queue invocations are retried.
type RetryPolicy struct {
	Strategy      string
	MaxRetryCount int
	Delay         time.Duration
	MaxDelay      time.Duration // exponential backoff only
}

// backoff returns the delay before retry attempt n, counting from 1.
func (p RetryPolicy) backoff(n int) time.Duration {
	if p.Strategy != ExponentialBackoff {
		return p.Delay
	}

	d := p.Delay
	for i := 1; i < n; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// Function is a registered trigger handler.
type Function struct {
	Name    string
	Kind    string
	Config  any
	Handler any
	Retry   *RetryPolicy

	async Handler
	sync  SyncHandler
}

// Invoke runs the function's handler with ctx.
func (f *Function) Invoke(ctx context.Context, inv *Invocation) (any, error) {
	if inv == nil {
		inv = NewInvocation()
	}
	inv = inv.WithContext(ctx)
	inv.FunctionName = f.Name
	inv.Kind = f.Kind

	if f.async != nil {
		return f.async(ctx, inv)
	}
	return f.sync(inv)
}

// Registrar is the trigger registration surface shared by Blueprint and the
// scoping wrapper around it.
type Registrar interface {
	Route(cfg RouteConfig) Decorator
	Timer(cfg TimerConfig) Decorator
	Queue(cfg QueueConfig) Decorator

	// Trigger registers a handler for an arbitrary trigger kind. The
	// built-in kinds expect their typed configuration.
	Trigger(kind string, cfg any) Decorator

	Retry(policy RetryPolicy)
	Functions() []*Function
	ValidateFunctionNames() error
}

var _ Registrar = (*Blueprint)(nil)

// Blueprint collects functions before they are registered with an App.
type Blueprint struct {
	mu        sync.Mutex
	functions []*Function
	retry     *RetryPolicy
}

// NewBlueprint creates an empty Blueprint.
func NewBlueprint() *Blueprint {
	return &Blueprint{}
}

// Route returns a decorator registering an HTTP route handler.
func (b *Blueprint) Route(cfg RouteConfig) Decorator {
	return b.Trigger(KindRoute, cfg)
}

// Timer returns a decorator registering a timer handler.
func (b *Blueprint) Timer(cfg TimerConfig) Decorator {
	return b.Trigger(KindTimer, cfg)
}

// Queue returns a decorator registering a queue handler.
func (b *Blueprint) Queue(cfg QueueConfig) Decorator {
	return b.Trigger(KindQueue, cfg)
}

// Trigger returns a decorator registering a handler for kind with cfg.
func (b *Blueprint) Trigger(kind string, cfg any) Decorator {
	return func(handler any) error {
		asyncHandler, syncHandler, err := Classify(handler)
		if err != nil {
			return err
		}

		name, normalized, err := normalizeConfig(kind, cfg)
		if err != nil {
			return err
		}

		b.mu.Lock()
		defer b.mu.Unlock()

		fn := &Function{
			Name:    name,
			Kind:    kind,
			Config:  normalized,
			Handler: handler,
			Retry:   b.retry,
			async:   asyncHandler,
			sync:    syncHandler,
		}
		b.functions = append(b.functions, fn)
		return nil
	}
}

// Retry sets the retry policy of timer and queue functions registered after
// the call.
func (b *Blueprint) Retry(policy RetryPolicy) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.retry = &policy
}

// Functions returns the registered functions in registration order.
func (b *Blueprint) Functions() []*Function {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Function(nil), b.functions...)
}

// ValidateFunctionNames checks that every function has a unique, non-empty
// name.
func (b *Blueprint) ValidateFunctionNames() error {
	return validateNames(b.Functions())
}

func validateNames(functions []*Function) error {
	seen := make(map[string]struct{}, len(functions))
	for _, fn := range functions {
		if strings.TrimSpace(fn.Name) == "" {
			return fmt.Errorf("%w: %s function", ErrEmptyFunctionName, fn.Kind)
		}
		if _, ok := seen[fn.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateFunction, fn.Name)
		}
		seen[fn.Name] = struct{}{}
	}
	return nil
}

// normalizeConfig checks the configuration of the built-in kinds, fills in
// defaults and derives the function name.
func normalizeConfig(kind string, cfg any) (string, any, error) {
	switch kind {
	case KindRoute:
		c, ok := asConfig[RouteConfig](cfg)
		if !ok || c.Route == "" {
			return "", nil, fmt.Errorf("%w: %s needs a RouteConfig with a route", ErrInvalidConfig, kind)
		}
		if !strings.HasPrefix(c.Route, "/") {
			c.Route = "/" + c.Route
		}
		methods := make([]string, 0, len(c.Methods))
		for _, m := range c.Methods {
			methods = append(methods, strings.ToUpper(m))
		}
		if len(methods) == 0 {
			methods = []string{http.MethodGet}
		}
		c.Methods = methods
		if c.Name == "" {
			c.Name = strings.Join(c.Methods, ",") + " " + c.Route
		}
		return c.Name, c, nil

	case KindTimer:
		c, ok := asConfig[TimerConfig](cfg)
		if !ok || c.Schedule == "" {
			return "", nil, fmt.Errorf("%w: %s needs a TimerConfig with a schedule", ErrInvalidConfig, kind)
		}
		if c.Name == "" {
			c.Name = "timer " + c.Schedule
		}
		return c.Name, c, nil

	case KindQueue:
		c, ok := asConfig[QueueConfig](cfg)
		if !ok || c.Queue == "" {
			return "", nil, fmt.Errorf("%w: %s needs a QueueConfig with a queue", ErrInvalidConfig, kind)
		}
		if c.Name == "" {
			c.Name = "queue " + c.Queue
		}
		return c.Name, c, nil
	}

	if named, ok := cfg.(interface{ FunctionName() string }); ok {
		return named.FunctionName(), cfg, nil
	}
	return kind, cfg, nil
}

func asConfig[T any](cfg any) (T, bool) {
	switch c := cfg.(type) {
	case T:
		return c, true
	case *T:
		if c != nil {
			return *c, true
		}
	}
	var zero T
	return zero, false
}
