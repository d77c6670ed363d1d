// Package devserver is a development backend for the campus portal. It
// answers the same routes and envelope dialects as the real API, keeping
// every resource as JSON records in one table.
package devserver

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/logger"

	"github.com/kart-io/campus-portal/pkg/infra/app"
)

const (
	// Name is the name of the application.
	Name = "portal-devserver"

	appDescription = `portal-devserver serves the campus portal API for local development.

Every /group/name collection is generic: items are stored as JSON records,
soft-deleted and restorable, and listed in the envelope the real backend
uses for that path. An admin account is seeded on startup.

The signing key comes from --jwt.key or JWT_KEY (at least 32 characters).`
)

// NewApp creates the devserver application.
func NewApp() *app.App {
	opts := NewOptions()
	return app.NewApp(
		app.WithName(Name),
		app.WithShortDescription("Campus portal development backend"),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithDotenv(".env"),
		app.WithRunFunc(run(opts)),
		app.WithCommands(app.NewVersionCommand()),
	)
}

func run(opts *Options) app.RunFunc {
	return func() error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, err := NewServer(ctx, opts)
		if err != nil {
			return err
		}
		defer func() {
			if err := srv.Close(context.Background()); err != nil {
				logger.Errorw("Failed to close server", "error", err)
			}
		}()
		return srv.Run(ctx)
	}
}
