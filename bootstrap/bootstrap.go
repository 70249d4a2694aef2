// Package bootstrap assembles a function app: container, configuration,
// service registries and controllers. It also runs the app, locally or on
// AWS Lambda.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/junioryono/fnboot"
	"github.com/junioryono/fnboot/config"
	"github.com/junioryono/fnboot/function"
	"github.com/junioryono/fnboot/mvc"
)

const (
	// AddrKey names the configuration key of the local listen address.
	AddrKey = "FNBOOT_ADDR"

	// ShutdownTimeoutKey names the configuration key of the graceful
	// shutdown timeout.
	ShutdownTimeoutKey = "FNBOOT_SHUTDOWN_TIMEOUT"

	defaultAddr            = ":7071"
	defaultShutdownTimeout = 10 * time.Second
	lambdaRuntimeEnv       = "AWS_LAMBDA_RUNTIME_API"
)

type settings struct {
	logger      *slog.Logger
	config      *config.Configuration
	modules     []fnboot.ModuleOption
	controllers []mvc.ControllerFactory
	appOptions  []function.AppOption
	preSetup    func(*fnboot.Container) error
	postSetup   func(*function.App, *fnboot.Container) error
}

// Option configures CreateApp.
type Option func(*settings)

// WithLogger sets the logger shared by the app, the container and the
// controllers.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConfiguration uses cfg instead of loading the environment.
func WithConfiguration(cfg *config.Configuration) Option {
	return func(s *settings) {
		s.config = cfg
	}
}

// WithModules adds service registries applied to the container.
func WithModules(modules ...fnboot.ModuleOption) Option {
	return func(s *settings) {
		s.modules = append(s.modules, modules...)
	}
}

// WithControllers adds controllers, registered in order.
func WithControllers(factories ...mvc.ControllerFactory) Option {
	return func(s *settings) {
		s.controllers = append(s.controllers, factories...)
	}
}

// WithAppOptions passes options to function.NewApp.
func WithAppOptions(opts ...function.AppOption) Option {
	return func(s *settings) {
		s.appOptions = append(s.appOptions, opts...)
	}
}

// WithPreSetup runs hook after the container is created and before any
// service is registered.
func WithPreSetup(hook func(*fnboot.Container) error) Option {
	return func(s *settings) {
		s.preSetup = hook
	}
}

// WithPostSetup runs hook once every function is registered.
func WithPostSetup(hook func(*function.App, *fnboot.Container) error) Option {
	return func(s *settings) {
		s.postSetup = hook
	}
}

// CreateApp creates the app and its container.
//
// The configuration and the logger are registered as singletons, then the
// pre-setup hook runs, the modules are applied, the controllers register
// their functions on a blueprint, the blueprint is registered with the app
// and finally the post-setup hook runs. A failing stage is logged and
// returned.
func CreateApp(opts ...Option) (*function.App, *fnboot.Container, error) {
	s := &settings{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	logger := s.logger

	logger.Info("setting up function app")

	app := function.NewApp(append([]function.AppOption{function.WithLogger(logger)}, s.appOptions...)...)
	blueprint := function.NewBlueprint()
	container := fnboot.New(fnboot.WithLogger(logger))

	stage := func(name string, run func() error) error {
		if err := run(); err != nil {
			logger.Error("function app setup failed", "stage", name, "error", err)
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}

	if err := stage("configuration", func() error {
		if s.config == nil {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			s.config = cfg
		}

		if err := container.AddSingleton(fnboot.Instance(s.config)); err != nil {
			return err
		}
		return container.AddSingleton(fnboot.Instance(logger))
	}); err != nil {
		return nil, nil, err
	}

	if s.preSetup != nil {
		if err := stage("pre-setup hook", func() error { return s.preSetup(container) }); err != nil {
			return nil, nil, err
		}
	}

	if err := stage("registries", func() error { return container.AddModules(s.modules...) }); err != nil {
		return nil, nil, err
	}

	if err := stage("controllers", func() error {
		return mvc.RegisterControllers(container, blueprint, logger, s.controllers...)
	}); err != nil {
		return nil, nil, err
	}

	if err := stage("blueprint", func() error { return app.RegisterBlueprint(blueprint) }); err != nil {
		return nil, nil, err
	}

	if s.postSetup != nil {
		if err := stage("post-setup hook", func() error { return s.postSetup(app, container) }); err != nil {
			return nil, nil, err
		}
	}

	if err := stage("validation", container.Validate); err != nil {
		return nil, nil, err
	}

	logger.Info("function app setup completed",
		"functions", len(app.Functions()),
		"services", len(container.Keys()))

	return app, container, nil
}

// ShutdownContainer shuts c down and logs the outcome.
func ShutdownContainer(ctx context.Context, c *fnboot.Container, logger *slog.Logger) {
	if c == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := c.Shutdown(ctx); err != nil {
		logger.ErrorContext(ctx, "error during container shutdown", "error", err)
		return
	}
	logger.InfoContext(ctx, "container shutdown completed successfully")
}

// Run serves app until ctx ends.
//
// Inside AWS Lambda the routes are served from API Gateway events and the
// container is shut down when the runtime sends SIGTERM. Elsewhere the app
// listens on FNBOOT_ADDR (default :7071), starts its timers and queues, and
// on ctx cancellation stops gracefully within FNBOOT_SHUTDOWN_TIMEOUT before
// shutting the container down.
func Run(ctx context.Context, app *function.App, c *fnboot.Container, cfg *config.Configuration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		var err error
		if cfg, err = config.New(); err != nil {
			return err
		}
	}

	if _, ok := cfg.Lookup(lambdaRuntimeEnv); ok {
		logger.InfoContext(ctx, "starting lambda handler")
		lambda.StartWithOptions(app.LambdaHandler(),
			lambda.WithContext(ctx),
			lambda.WithEnableSIGTERM(func() {
				ShutdownContainer(context.Background(), c, logger)
			}),
		)
		return nil
	}

	addr := cfg.GetOr(AddrKey, defaultAddr)
	timeout := cfg.GetDuration(ShutdownTimeoutKey)
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := app.Start(ctx); err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "listening", "addr", addr)
		serveErr <- srv.ListenAndServe()
	}()

	var err error
	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		logger.InfoContext(ctx, "shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		logger.ErrorContext(shutdownCtx, "http server shutdown failed", "error", serr)
	}
	if serr := app.Stop(shutdownCtx); serr != nil {
		logger.ErrorContext(shutdownCtx, "function app stop failed", "error", serr)
	}
	ShutdownContainer(shutdownCtx, c, logger)

	return err
}
