package function

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
)

const defaultQueueBuffer = 64

// App hosts registered functions. Route functions are served by a chi
// router, timer functions are scheduled with cron and queue functions consume
// in-memory queues.
//
// Example:
//
//	bp := function.NewBlueprint()
//	bp.Route(function.RouteConfig{Route: "/hello"})(func(inv *function.Invocation) (any, error) {
//	    return "hello", nil
//	})
//
//	app := function.NewApp()
//	if err := app.RegisterBlueprint(bp); err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":7071", app)
type App struct {
	router      *chi.Mux
	cron        *cron.Cron
	logger      *slog.Logger
	queueBuffer int

	mu        sync.RWMutex
	functions map[string]*Function
	order     []*Function
	queues    map[string]*queue
	startup   []*Function

	running bool
	stopped bool
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type appConfig struct {
	logger      *slog.Logger
	location    *time.Location
	queueBuffer int
	middlewares []func(http.Handler) http.Handler
}

// AppOption configures an App.
type AppOption func(*appConfig)

// WithLogger sets the logger of the app.
func WithLogger(logger *slog.Logger) AppOption {
	return func(c *appConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLocation sets the time zone timer schedules are interpreted in.
func WithLocation(loc *time.Location) AppOption {
	return func(c *appConfig) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithQueueBuffer sets how many messages a queue holds before Enqueue blocks.
func WithQueueBuffer(n int) AppOption {
	return func(c *appConfig) {
		if n > 0 {
			c.queueBuffer = n
		}
	}
}

// WithMiddleware adds HTTP middleware in front of every route.
func WithMiddleware(mw ...func(http.Handler) http.Handler) AppOption {
	return func(c *appConfig) {
		c.middlewares = append(c.middlewares, mw...)
	}
}

// NewApp creates an App with no functions.
func NewApp(opts ...AppOption) *App {
	cfg := &appConfig{
		logger:      slog.Default(),
		location:    time.Local,
		queueBuffer: defaultQueueBuffer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(cfg.middlewares...)

	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		router: router,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(cfg.location),
			cron.WithLogger(cronLogger{logger: cfg.logger}),
		),
		logger:      cfg.logger,
		queueBuffer: cfg.queueBuffer,
		functions:   make(map[string]*Function),
		queues:      make(map[string]*queue),
		done:        make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// RegisterBlueprint registers every function collected by r.
func (a *App) RegisterBlueprint(r Registrar) error {
	if err := r.ValidateFunctionNames(); err != nil {
		return err
	}

	for _, fn := range r.Functions() {
		if err := a.RegisterFunction(fn); err != nil {
			return err
		}
	}
	return nil
}

// RegisterFunction registers a single function with the host.
func (a *App) RegisterFunction(fn *Function) error {
	if fn == nil {
		return fmt.Errorf("%w: nil function", ErrInvalidHandler)
	}

	if fn.async == nil && fn.sync == nil {
		asyncHandler, syncHandler, err := Classify(fn.Handler)
		if err != nil {
			return fmt.Errorf("function %q: %w", fn.Name, err)
		}
		fn.async, fn.sync = asyncHandler, syncHandler
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return ErrAppStopped
	}

	if _, exists := a.functions[fn.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateFunction, fn.Name)
	}

	switch fn.Kind {
	case KindRoute:
		cfg, ok := asConfig[RouteConfig](fn.Config)
		if !ok {
			return fmt.Errorf("%w: function %q has no RouteConfig", ErrInvalidConfig, fn.Name)
		}
		for _, method := range cfg.Methods {
			if err := a.mount(method, cfg.Route, a.routeHandler(fn)); err != nil {
				return fmt.Errorf("function %q: %w", fn.Name, err)
			}
		}

	case KindTimer:
		cfg, ok := asConfig[TimerConfig](fn.Config)
		if !ok {
			return fmt.Errorf("%w: function %q has no TimerConfig", ErrInvalidConfig, fn.Name)
		}
		if _, err := a.cron.AddFunc(cfg.Schedule, func() { a.fire(fn, cfg, false) }); err != nil {
			return fmt.Errorf("%w: function %q: %w", ErrInvalidConfig, fn.Name, err)
		}
		if cfg.RunOnStartup {
			a.startup = append(a.startup, fn)
		}

	case KindQueue:
		cfg, ok := asConfig[QueueConfig](fn.Config)
		if !ok {
			return fmt.Errorf("%w: function %q has no QueueConfig", ErrInvalidConfig, fn.Name)
		}
		if _, exists := a.queues[cfg.Queue]; exists {
			return fmt.Errorf("%w: queue %q already has a consumer", ErrInvalidConfig, cfg.Queue)
		}
		q := newQueue(cfg.Queue, fn, a.queueBuffer)
		a.queues[cfg.Queue] = q
		if a.running {
			a.wg.Add(1)
			go a.consume(q)
		}
	}

	a.functions[fn.Name] = fn
	a.order = append(a.order, fn)
	return nil
}

// mount adds a route for method, or for every method when method is empty.
// chi reports invalid methods and patterns by panicking.
func (a *App) mount(method, pattern string, h http.Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidConfig, r)
		}
	}()

	if method == "" {
		a.router.Handle(pattern, h)
		return nil
	}
	a.router.Method(method, pattern, h)
	return nil
}

func (a *App) routeHandler(fn *Function) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv := NewInvocation()
		inv.Request = r
		inv.Params = routeParams(r)

		result, err := fn.Invoke(r.Context(), inv)
		if err != nil {
			a.logger.ErrorContext(r.Context(), "function failed",
				"function", fn.Name,
				"invocation", inv.ID,
				"error", err)
			_ = JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"}).Write(w)
			return
		}

		if err := toResponse(result).Write(w); err != nil {
			a.logger.WarnContext(r.Context(), "failed to write response",
				"function", fn.Name,
				"error", err)
		}
	}
}

func routeParams(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || len(rctx.URLParams.Keys) == 0 {
		return nil
	}

	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		params[key] = rctx.URLParams.Values[i]
	}
	return params
}

// Handle mounts a plain HTTP handler on pattern, for all methods. It is not a
// function: it has no Invocation and is not listed by Functions.
func (a *App) Handle(pattern string, h http.Handler) error {
	if h == nil {
		return fmt.Errorf("%w: nil handler for %q", ErrInvalidConfig, pattern)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	return a.mount("", pattern, h)
}

// ServeHTTP serves the app's routes.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// LambdaHandler returns a handler serving the app's routes from API Gateway
// HTTP API events, for use with lambda.Start.
func (a *App) LambdaHandler() func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return chiadapter.NewV2(a.router).ProxyWithContextV2
}

// Start starts the timer scheduler and the queue consumers. Timers
// configured to run on startup fire once immediately.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return ErrAppStopped
	}
	if a.running {
		return nil
	}
	a.running = true

	for _, q := range a.queues {
		a.wg.Add(1)
		go a.consume(q)
	}

	a.cron.Start()

	for _, fn := range a.startup {
		cfg, _ := asConfig[TimerConfig](fn.Config)
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.fire(fn, cfg, true)
		}()
	}

	a.logger.InfoContext(ctx, "function app started",
		"functions", len(a.order),
		"queues", len(a.queues))
	return nil
}

// Stop stops accepting timer firings and queue messages and waits for
// running invocations to finish, or for ctx to end. Invocations still running
// when ctx ends see their context cancelled.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	a.stopped = true
	running := a.running
	a.running = false
	close(a.done)
	a.mu.Unlock()

	defer a.cancel()

	if !running {
		return nil
	}

	finished := make(chan struct{})
	go func() {
		<-a.cron.Stop().Done()
		a.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Invoke runs the named function directly.
func (a *App) Invoke(ctx context.Context, name string, inv *Invocation) (any, error) {
	fn, ok := a.Function(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
	}
	return fn.Invoke(ctx, inv)
}

// Function returns the named function.
func (a *App) Function(name string) (*Function, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	fn, ok := a.functions[name]
	return fn, ok
}

// Functions returns every registered function in registration order.
func (a *App) Functions() []*Function {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]*Function(nil), a.order...)
}

func (a *App) fire(fn *Function, cfg TimerConfig, onStartup bool) {
	err := a.runWithRetry(fn, func(int) error {
		inv := NewInvocation()
		inv.Timer = &TimerInfo{
			Schedule:  cfg.Schedule,
			FiredAt:   time.Now(),
			OnStartup: onStartup,
		}
		_, err := a.safeInvoke(fn, inv)
		return err
	})
	if err != nil {
		a.logger.Error("timer function failed",
			"function", fn.Name,
			"schedule", cfg.Schedule,
			"error", err)
	}
}

// safeInvoke runs fn in a background invocation, turning panics into errors.
func (a *App) safeInvoke(fn *Function, inv *Invocation) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("function %q panicked: %v", fn.Name, r)
		}
	}()

	return fn.Invoke(a.ctx, inv)
}

// runWithRetry calls call until it succeeds or the function's retry policy is
// exhausted. attempt counts from 1.
func (a *App) runWithRetry(fn *Function, call func(attempt int) error) error {
	attempts := 1
	var policy RetryPolicy
	if fn.Retry != nil {
		policy = *fn.Retry
		attempts += max(policy.MaxRetryCount, 0)
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = call(attempt); err == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		delay := policy.backoff(attempt)
		a.logger.Warn("function failed, retrying",
			"function", fn.Name,
			"attempt", attempt,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-a.done:
			timer.Stop()
			return err
		}
	}

	return err
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
