// Package mvc runs trigger handlers in a per-invocation scope and provides a
// small base for controllers that register them.
//
// Example:
//
//	type UserController struct {
//	    mvc.Base
//	}
//
//	func NewUserController(base mvc.Base) mvc.Controller {
//	    return &UserController{Base: base}
//	}
//
//	func (c *UserController) RegisterRoutes() error {
//	    return c.Blueprint.Route(function.RouteConfig{Route: "/users/{id}"})(c.get)
//	}
//
//	func (c *UserController) get(ctx context.Context, inv *function.Invocation) (any, error) {
//	    users, err := fnboot.Resolve[*UserService](ctx, c.Container)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return c.JSON(users.Get(inv.Param("id")), http.StatusOK), nil
//	}
package mvc

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/junioryono/fnboot"
	"github.com/junioryono/fnboot/function"
)

// Base is embedded by controllers. Blueprint registers scoped handlers.
type Base struct {
	Container *fnboot.Container
	Blueprint *ScopedBlueprint
	Logger    *slog.Logger
}

// NewBase creates a Base whose Blueprint wraps registrar.
func NewBase(c *fnboot.Container, registrar function.Registrar, logger *slog.Logger) Base {
	if logger == nil {
		logger = slog.Default()
	}

	return Base{
		Container: c,
		Blueprint: NewScopedBlueprint(registrar, logger),
		Logger:    logger,
	}
}

// JSON creates a JSON response.
func (b Base) JSON(data any, status int) *function.Response {
	return function.JSON(status, data)
}

// Error creates a JSON error response of the form {"error": message}.
func (b Base) Error(message string, status int) *function.Response {
	return function.JSON(status, map[string]string{"error": message})
}

// Controller registers its trigger handlers.
type Controller interface {
	RegisterRoutes() error
}

// ControllerFactory builds a controller from its Base.
type ControllerFactory func(Base) Controller

var ErrNilController = errors.New("controller factory returned nil")

// RegisterControllers builds every controller, each with its own
// ScopedBlueprint over registrar, and registers its handlers.
func RegisterControllers(c *fnboot.Container, registrar function.Registrar, logger *slog.Logger, factories ...ControllerFactory) error {
	if logger == nil {
		logger = slog.Default()
	}

	for i, factory := range factories {
		if factory == nil {
			continue
		}

		controller := factory(NewBase(c, registrar, logger))
		if controller == nil {
			return fmt.Errorf("controller %d: %w", i, ErrNilController)
		}

		if err := controller.RegisterRoutes(); err != nil {
			return fmt.Errorf("register %T: %w", controller, err)
		}

		logger.Debug("controller registered", "controller", fmt.Sprintf("%T", controller))
	}

	return nil
}
