// Package portalctl is the campus portal command line: session commands,
// generic resource CRUD and a few desk workflows, all through the portal
// client library.
package portalctl

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kart-io/campus-portal/pkg/infra/app"
)

const (
	appName        = "portalctl"
	appDescription = `portalctl talks to the campus portal API.

Sign in once with "portalctl login"; the token is kept in the session store
(a file by default) and sent with every later command.

Configuration is read from portalctl.yaml (., ./configs, ~/.portalctl,
/etc/portalctl), .env files, PORTALCTL_* environment variables and flags.`
)

// NewApp builds the command tree around opts.
func NewApp(opts *Options) *app.App {
	c := &cli{opts: opts}
	return app.NewApp(
		app.WithName(appName),
		app.WithShortDescription("Campus portal command line"),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithDotenv(".env"),
		app.WithSilence(),
		app.WithCommands(
			c.loginCommand(),
			c.logoutCommand(),
			c.whoamiCommand(),
			c.resourcesCommand(),
			c.listCommand(),
			c.getCommand(),
			c.createCommand(),
			c.updateCommand(),
			c.deleteCommand(),
			c.restoreCommand(),
			c.deletedCommand(),
			c.purgeCommand(),
			c.libraryCommand(),
			c.ticketCommand(),
			app.NewVersionCommand(),
		),
	)
}

// Main runs portalctl with args and returns the process exit code.
func Main(args []string, stdout, stderr io.Writer) int {
	a := NewApp(NewOptions())
	a.Command().SetOut(stdout)
	a.Command().SetErr(stderr)
	if err := a.Execute(args...); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

// Run is Main over the process arguments and standard streams.
func Run() int {
	return Main(os.Args[1:], os.Stdout, os.Stderr)
}

// cli carries the loaded options into command handlers.
type cli struct {
	opts *Options
}

// with opens a runtime for the duration of fn.
func (c *cli) with(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime, p printer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := newRuntime(ctx, c.opts)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()
	return fn(ctx, rt, printer{out: cmd.OutOrStdout(), format: c.opts.Output})
}
