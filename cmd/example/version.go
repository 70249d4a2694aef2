package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/junioryono/fnboot"
	"github.com/junioryono/fnboot/function"
	"github.com/junioryono/fnboot/mvc"
)

const version = "0.1.0"

// VersionHandler is a plain HTTP handler resolved per request.
type VersionHandler struct {
	request *http.Request
}

func NewVersionHandler(r *http.Request) *VersionHandler {
	return &VersionHandler{request: r}
}

func (h *VersionHandler) ServeVersion(w http.ResponseWriter, _ *http.Request) {
	_ = function.JSON(http.StatusOK, map[string]string{
		"version": version,
		"path":    h.request.URL.Path,
	}).Write(w)
}

// mountVersion runs after setup and adds the version endpoint.
func mountVersion(app *function.App, c *fnboot.Container) error {
	if err := c.AddScoped(NewVersionHandler); err != nil {
		return err
	}

	logger, err := fnboot.Resolve[*slog.Logger](context.Background(), c)
	if err != nil {
		return err
	}

	return app.Handle("/version", mvc.ScopeMiddleware(mvc.WithLogger(logger))(
		mvc.Handle(c, (*VersionHandler).ServeVersion, mvc.WithHandlerLogger(logger)),
	))
}
