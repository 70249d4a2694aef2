package main

import (
	"context"
	"net/http"

	"github.com/junioryono/fnboot"
	"github.com/junioryono/fnboot/function"
	"github.com/junioryono/fnboot/mvc"
)

type ExampleController struct {
	mvc.Base
}

func NewExampleController(base mvc.Base) mvc.Controller {
	return &ExampleController{Base: base}
}

func (c *ExampleController) RegisterRoutes() error {
	if err := c.Blueprint.Route(function.RouteConfig{
		Name:  "example",
		Route: "/example/{param}",
	})(c.example); err != nil {
		return err
	}

	if err := c.Blueprint.Queue(function.QueueConfig{
		Name:  "audit",
		Queue: "audit",
	})(c.audit); err != nil {
		return err
	}

	return c.Blueprint.Timer(function.TimerConfig{
		Name:     "heartbeat",
		Schedule: "@every 1m",
	})(c.heartbeat)
}

func (c *ExampleController) example(ctx context.Context, inv *function.Invocation) (any, error) {
	svc, err := fnboot.Resolve[ExampleService](ctx, c.Container)
	if err != nil {
		return nil, err
	}

	message, err := svc.Describe(ctx, inv.Param("param"))
	if err != nil {
		return c.Error(err.Error(), http.StatusBadGateway), nil
	}

	return c.JSON(map[string]string{"message": message}, http.StatusOK), nil
}

func (c *ExampleController) audit(ctx context.Context, inv *function.Invocation) (any, error) {
	auditor, err := fnboot.Resolve[*Auditor](ctx, c.Container)
	if err != nil {
		return nil, err
	}

	auditor.Record(ctx, string(inv.Message.Body))
	return nil, nil
}

func (c *ExampleController) heartbeat(inv *function.Invocation) (any, error) {
	c.Logger.Debug("heartbeat", "fired_at", inv.Timer.FiredAt)
	return nil, nil
}

type HealthController struct {
	mvc.Base
}

func NewHealthController(base mvc.Base) mvc.Controller {
	return &HealthController{Base: base}
}

func (c *HealthController) RegisterRoutes() error {
	return c.Blueprint.Route(function.RouteConfig{
		Name:  "health_check",
		Route: "/health_check",
	})(func(*function.Invocation) (any, error) {
		return function.Text(http.StatusOK, "Healthy"), nil
	})
}
