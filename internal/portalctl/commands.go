package portalctl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kart-io/campus-portal/internal/portal/auth"
	"github.com/kart-io/campus-portal/pkg/client/resource"
	"github.com/kart-io/campus-portal/pkg/client/rest"
)

func (c *cli) loginCommand() *cobra.Command {
	var (
		email         string
		password      string
		otp           string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if passwordStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && err != io.EOF {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			return c.with(cmd, func(ctx context.Context, rt *runtime, p printer) error {
				res, err := rt.portal.Auth.Login(ctx, auth.Credentials{Email: email, Password: password, OTP: otp})
				if errors.Is(err, auth.ErrTwoFactorRequired) {
					return fmt.Errorf("%w: run login again with --otp", err)
				}
				if err != nil {
					return err
				}
				name := res.User.FullName()
				if name == "" {
					name = email
				}
				return p.Message("Logged in as " + name)
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().StringVar(&otp, "otp", "", "Two-factor code")
	return cmd
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.with(cmd, func(ctx context.Context, rt *runtime, p printer) error {
				if err := rt.portal.Auth.Logout(ctx); err != nil {
					return err
				}
				return p.Message("Logged out")
			})
		},
	}
}

func (c *cli) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.with(cmd, func(ctx context.Context, rt *runtime, p printer) error {
				user, err := rt.portal.Auth.Verify(ctx)
				if err != nil {
					return err
				}
				return p.Print(user, nil)
			})
		},
	}
}

func (c *cli) resourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the resource names accepted by the CRUD commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := printer{out: cmd.OutOrStdout(), format: c.opts.Output}
			rows := make([]Record, 0, len(registry))
			for _, e := range Entries() {
				rows = append(rows, Record{"name": e.Name, "path": e.Path, "aliases": strings.Join(e.Aliases, ",")})
			}
			return p.Print(rows, []string{"name", "path", "aliases"})
		},
	}
}

func (c *cli) listCommand() *cobra.Command {
	var (
		page    int
		limit   int
		search  string
		all     bool
		filters map[string]string
	)
	cmd := &cobra.Command{
		Use:     "list <resource>",
		Aliases: []string{"ls"},
		Short:   "List resources",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := Lookup(args[0])
			if err != nil {
				return err
			}
			params := rest.Params{}
			for k, v := range filters {
				params[k] = v
			}
			if search != "" {
				params["search"] = search
			}
			if limit > 0 {
				params["limit"] = limit
			}
			return c.with(cmd, func(ctx context.Context, rt *runtime, p printer) error {
				rc := entry.Client(rt.transport)
				if all {
					items, err := resource.Collect(ctx, rc, params, 0)
					if err != nil {
						return err
					}
					return p.PrintPage(items, nil, entry.Columns)
				}
				if page > 0 {
					params["page"] = page
				}
				list, err := rc.List(ctx, params)
				if err != nil {
					return err
				}
				return p.PrintPage(list.Data, list.Pagination, entry.Columns)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Search text")
	cmd.Flags().BoolVarP(&all, "all", "A", false, "Walk every page")
	cmd.Flags().StringToStringVarP(&filters, "filter", "F", nil, "Extra query filters (key=value)")
	return cmd
}

func (c *cli) getCommand() *cobra.Command {
	return c.itemCommand("get <resource> <id>", "Show one resource",
		func(ctx context.Context, rc *resource.Client[Record], id string, p printer) error {
			item, err := rc.Get(ctx, id)
			if err != nil {
				return err
			}
			return p.Print(item, nil)
		})
}

func (c *cli) deleteCommand() *cobra.Command {
	return c.itemCommand("delete <resource> <id>", "Soft-delete a resource",
		func(ctx context.Context, rc *resource.Client[Record], id string, p printer) error {
			msg, err := rc.Delete(ctx, id)
			if err != nil {
				return err
			}
			return p.Message(msg.Message)
		})
}

func (c *cli) purgeCommand() *cobra.Command {
	return c.itemCommand("purge <resource> <id>", "Delete a resource permanently",
		func(ctx context.Context, rc *resource.Client[Record], id string, p printer) error {
			msg, err := rc.DeletePermanently(ctx, id)
			if err != nil {
				return err
			}
			return p.Message(msg.Message)
		})
}

func (c *cli) restoreCommand() *cobra.Command {
	return c.itemCommand("restore <resource> <id>", "Restore a soft-deleted resource",
		func(ctx context.Context, rc *resource.Client[Record], id string, p printer) error {
			item, err := rc.Restore(ctx, id)
			if err != nil {
				return err
			}
			return p.Print(item, nil)
		})
}

func (c *cli) deletedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deleted <resource>",
		Short: "List soft-deleted resources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := Lookup(args[0])
			if err != nil {
				return err
			}
			return c.with(cmd, func(ctx context.Context, rt *runtime, p printer) error {
				items, err := entry.Client(rt.transport).ListDeleted(ctx)
				if err != nil {
					return err
				}
				return p.PrintPage(items, nil, entry.Columns)
			})
		},
	}
}

func (c *cli) createCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create <resource> -f <file>",
		Short: "Create a resource from a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := Lookup(args[0])
			if err != nil {
				return err
			}
			body, err := readPayload(cmd, file)
			if err != nil {
				return err
			}
			return c.with(cmd, func(ctx context.Context, rt *runtime, p printer) error {
				item, err := entry.Client(rt.transport).Create(ctx, body)
				if err != nil {
					return err
				}
				return p.Print(item, nil)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `Payload file ("-" reads stdin)`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (c *cli) updateCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update <resource> <id> -f <file>",
		Short: "Update a resource with the fields in a JSON or YAML file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := Lookup(args[0])
			if err != nil {
				return err
			}
			body, err := readPayload(cmd, file)
			if err != nil {
				return err
			}
			return c.with(cmd, func(ctx context.Context, rt *runtime, p printer) error {
				item, err := entry.Client(rt.transport).Update(ctx, args[1], body)
				if err != nil {
					return err
				}
				return p.Print(item, nil)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `Payload file ("-" reads stdin)`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

type itemFunc func(ctx context.Context, rc *resource.Client[Record], id string, p printer) error

func (c *cli) itemCommand(use, short string, fn itemFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := Lookup(args[0])
			if err != nil {
				return err
			}
			return c.with(cmd, func(ctx context.Context, rt *runtime, p printer) error {
				return fn(ctx, entry.Client(rt.transport), args[1], p)
			})
		},
	}
}

// readPayload reads a JSON or YAML object from path, or stdin for "-".
func readPayload(cmd *cobra.Command, path string) (Record, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	// YAML is a superset of JSON, so one decoder covers both.
	var body Record
	if err := yaml.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("parse payload %s: %w", path, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("payload %s is empty", path)
	}
	return body, nil
}
