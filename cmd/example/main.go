// Command example runs a small function app built with fnboot.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/junioryono/fnboot/bootstrap"
	"github.com/junioryono/fnboot/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(logger); err != nil {
		logger.Error("function app stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	app, container, err := bootstrap.CreateApp(
		bootstrap.WithLogger(logger),
		bootstrap.WithConfiguration(cfg),
		bootstrap.WithModules(ClientsModule, ServicesModule),
		bootstrap.WithControllers(NewExampleController, NewHealthController),
		bootstrap.WithPostSetup(mountVersion),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return bootstrap.Run(ctx, app, container, cfg, logger)
}
