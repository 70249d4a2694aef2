package mvc

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/junioryono/fnboot"
)

// MiddlewareConfig holds the configuration of ScopeMiddleware.
type MiddlewareConfig struct {
	// CloseErrorHandler is called when disposing the request scope fails.
	// By default the error is logged with Logger.
	CloseErrorHandler func(*http.Request, error)

	// Logger receives disposal failures when CloseErrorHandler is not set.
	Logger *slog.Logger

	// Middlewares run after the scope is created, in order. A failing
	// middleware aborts the request with ErrorHandler.
	Middlewares []func(*fnboot.Scope, *http.Request) error

	// ErrorHandler writes the response of a failed middleware.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures ScopeMiddleware.
type MiddlewareOption func(*MiddlewareConfig)

// WithCloseErrorHandler sets the handler for scope disposal failures.
func WithCloseErrorHandler(h func(*http.Request, error)) MiddlewareOption {
	return func(c *MiddlewareConfig) {
		c.CloseErrorHandler = h
	}
}

// WithLogger sets the logger of the default close error handler.
func WithLogger(logger *slog.Logger) MiddlewareOption {
	return func(c *MiddlewareConfig) {
		c.Logger = logger
	}
}

// WithScopeSetup adds a function run after scope creation, for example to
// seed the scope with request data.
func WithScopeSetup(mw func(*fnboot.Scope, *http.Request) error) MiddlewareOption {
	return func(c *MiddlewareConfig) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

// WithErrorHandler sets the handler for scope setup failures.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(c *MiddlewareConfig) {
		c.ErrorHandler = h
	}
}

func defaultMiddlewareConfig() *MiddlewareConfig {
	return &MiddlewareConfig{
		Logger: slog.Default(),
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
	}
}

// ScopeMiddleware gives plain HTTP handlers mounted with App.Handle the same
// per-request scope that registered functions get. The scope is installed in
// the request context, seeded with the *http.Request and disposed when the
// request completes.
//
// Example:
//
//	app.Handle("/version", mvc.ScopeMiddleware()(mvc.Handle(c, (*VersionHandler).ServeVersion)))
func ScopeMiddleware(opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := defaultMiddlewareConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.CloseErrorHandler == nil {
		logger := cfg.Logger
		if logger == nil {
			logger = slog.Default()
		}
		cfg.CloseErrorHandler = func(r *http.Request, err error) {
			logger.ErrorContext(r.Context(), "failed to dispose request scope", "error", err)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := fnboot.CreateScope()
			_ = scope.Put(fnboot.KeyOf[*http.Request](), r)

			defer func() {
				if err := fnboot.DisposeScope(context.WithoutCancel(r.Context()), scope); err != nil {
					cfg.CloseErrorHandler(r, err)
				}
			}()

			r = r.WithContext(fnboot.WithScope(r.Context(), scope))

			for _, mw := range cfg.Middlewares {
				if err := mw(scope, r); err != nil {
					cfg.ErrorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HandlerConfig holds the configuration of Handle.
type HandlerConfig struct {
	// Logger receives resolution failures when ResolutionErrorHandler is not
	// set.
	Logger *slog.Logger

	// ResolutionErrorHandler writes the response when T cannot be resolved.
	// By default the error is logged with Logger and a 500 is written.
	ResolutionErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// HandlerOption configures Handle.
type HandlerOption func(*HandlerConfig)

// WithHandlerLogger sets the logger of the default resolution error handler.
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(c *HandlerConfig) {
		c.Logger = logger
	}
}

// WithResolutionErrorHandler sets the handler for resolution failures.
func WithResolutionErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

// Handle wraps a handler method of T. T is resolved from c in the scope of
// the request for every request.
//
// Example:
//
//	app.Handle("/version", mvc.ScopeMiddleware()(mvc.Handle(c, (*VersionHandler).ServeVersion)))
func Handle[T any](c *fnboot.Container, method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	cfg := &HandlerConfig{Logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.ResolutionErrorHandler == nil {
		logger := cfg.Logger
		if logger == nil {
			logger = slog.Default()
		}
		cfg.ResolutionErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			logger.ErrorContext(r.Context(), "failed to resolve handler", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		handler, err := fnboot.Resolve[T](r.Context(), c)
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}

		method(handler, w, r)
	}
}
