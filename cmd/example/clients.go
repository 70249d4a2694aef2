package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/junioryono/fnboot/config"
)

// ExampleClient stands in for a client holding a remote connection. It is
// scoped: every invocation gets its own and releases it when it ends.
type ExampleClient struct {
	endpoint string
	logger   *slog.Logger
}

func NewExampleClient(cfg *config.Configuration, logger *slog.Logger) *ExampleClient {
	return &ExampleClient{
		endpoint: cfg.GetOr("EXAMPLE_ENDPOINT", "https://example.invalid"),
		logger:   logger,
	}
}

func (c *ExampleClient) Echo(param string) string {
	return fmt.Sprintf("example call to %s with param: %s", c.endpoint, param)
}

// Close flushes the client. It may block, so it honors ctx.
func (c *ExampleClient) Close(ctx context.Context) error {
	select {
	case <-time.After(10 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}

	c.logger.InfoContext(ctx, "disposed example client", "endpoint", c.endpoint)
	return nil
}
