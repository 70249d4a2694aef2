package mvc

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/junioryono/fnboot/function"
)

// Registration kinds that are administrative operations of a registrar, not
// triggers. They are never intercepted.
var reservedKinds = map[string]struct{}{
	"register_blueprint":      {},
	"register_functions":      {},
	"get_functions":           {},
	"validate_function_names": {},
	"function_name":           {},
	"http_type":               {},
	"retry":                   {},
}

// IsIntercepted reports whether handlers registered for kind are wrapped
// with a scope: kind is neither reserved nor private (leading underscore).
func IsIntercepted(kind string) bool {
	if strings.HasPrefix(kind, "_") {
		return false
	}
	_, reserved := reservedKinds[kind]
	return !reserved
}

// ScopedBlueprint wraps a function.Registrar so that every trigger handler
// registered through it runs in its own scope. It implements
// function.Registrar itself, so controllers use it like the registrar it
// wraps.
type ScopedBlueprint struct {
	target function.Registrar
	logger *slog.Logger

	mu       sync.Mutex
	wrappers map[string]*TriggerWrapper
}

var _ function.Registrar = (*ScopedBlueprint)(nil)

// NewScopedBlueprint wraps target.
func NewScopedBlueprint(target function.Registrar, logger *slog.Logger) *ScopedBlueprint {
	if logger == nil {
		logger = slog.Default()
	}

	return &ScopedBlueprint{
		target:   target,
		logger:   logger,
		wrappers: make(map[string]*TriggerWrapper),
	}
}

// Target returns the wrapped registrar.
func (b *ScopedBlueprint) Target() function.Registrar {
	return b.target
}

// Wrapper returns the trigger wrapper of kind. Repeated calls return the same
// wrapper. ok is false for kinds that are not intercepted.
func (b *ScopedBlueprint) Wrapper(kind string) (*TriggerWrapper, bool) {
	if !IsIntercepted(kind) {
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if w, ok := b.wrappers[kind]; ok {
		return w, true
	}

	w := &TriggerWrapper{
		kind:     kind,
		register: b.original(kind),
		logger:   b.logger,
	}
	b.wrappers[kind] = w
	return w, true
}

// original returns the registration operation of the target for kind.
func (b *ScopedBlueprint) original(kind string) func(cfg any) function.Decorator {
	return func(cfg any) function.Decorator {
		switch c := cfg.(type) {
		case function.RouteConfig:
			if kind == function.KindRoute {
				return b.target.Route(c)
			}
		case function.TimerConfig:
			if kind == function.KindTimer {
				return b.target.Timer(c)
			}
		case function.QueueConfig:
			if kind == function.KindQueue {
				return b.target.Queue(c)
			}
		}
		return b.target.Trigger(kind, cfg)
	}
}

// Trigger registers a handler for kind. Intercepted kinds are wrapped with a
// scope; other kinds are passed to the target untouched.
func (b *ScopedBlueprint) Trigger(kind string, cfg any) function.Decorator {
	w, ok := b.Wrapper(kind)
	if !ok {
		return b.target.Trigger(kind, cfg)
	}
	return w.Call(cfg)
}

// Route registers a scoped HTTP route handler.
func (b *ScopedBlueprint) Route(cfg function.RouteConfig) function.Decorator {
	return b.Trigger(function.KindRoute, cfg)
}

// Timer registers a scoped timer handler.
func (b *ScopedBlueprint) Timer(cfg function.TimerConfig) function.Decorator {
	return b.Trigger(function.KindTimer, cfg)
}

// Queue registers a scoped queue handler.
func (b *ScopedBlueprint) Queue(cfg function.QueueConfig) function.Decorator {
	return b.Trigger(function.KindQueue, cfg)
}

func (b *ScopedBlueprint) Retry(policy function.RetryPolicy) {
	b.target.Retry(policy)
}

func (b *ScopedBlueprint) Functions() []*function.Function {
	return b.target.Functions()
}

func (b *ScopedBlueprint) ValidateFunctionNames() error {
	return b.target.ValidateFunctionNames()
}

// TriggerWrapper wraps the registration operation of one trigger kind.
type TriggerWrapper struct {
	kind     string
	register func(cfg any) function.Decorator
	logger   *slog.Logger
}

// Kind returns the trigger kind.
func (w *TriggerWrapper) Kind() string {
	return w.kind
}

// Call returns a decorator that wraps a handler with a scope and registers
// the wrapped handler with cfg through the original operation.
func (w *TriggerWrapper) Call(cfg any) function.Decorator {
	register := w.register(cfg)

	return func(handler any) error {
		wrapped, err := WrapWithScope(handler, w.logger)
		if err != nil {
			return err
		}
		return register(wrapped)
	}
}
