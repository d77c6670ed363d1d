package portalctl

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	borrowingColumns = []string{"id", "copyId", "userId", "dueDate", "fine", "status"}
)

func (c *cli) libraryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Circulation desk workflows",
	}

	overdue := &cobra.Command{
		Use:   "overdue",
		Short: "List overdue loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.with(cmd, func(ctx context.Context, rt *runtime, p printer) error {
				loans, err := rt.portal.Library.Overdue(ctx)
				if err != nil {
					return err
				}
				return p.Print(loans, borrowingColumns)
			})
		},
	}

	ret := &cobra.Command{
		Use:   "return <borrowing-id>",
		Short: "Check a borrowed copy back in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.with(cmd, func(ctx context.Context, rt *runtime, p printer) error {
				loan, err := rt.portal.Library.Return(ctx, args[0])
				if err != nil {
					return err
				}
				return p.Print(loan, nil)
			})
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel-reservation <reservation-id>",
		Short: "Release a hold on a title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.with(cmd, func(ctx context.Context, rt *runtime, p printer) error {
				msg, err := rt.portal.Library.CancelReservation(ctx, args[0])
				if err != nil {
					return err
				}
				return p.Message(msg.Message)
			})
		},
	}

	cmd.AddCommand(overdue, ret, cancel)
	return cmd
}

func (c *cli) ticketCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticket",
		Short: "Support ticket workflows",
	}

	reply := &cobra.Command{
		Use:   "reply <ticket-id> <message>",
		Short: "Reply to a ticket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.with(cmd, func(ctx context.Context, rt *runtime, p printer) error {
				t, err := rt.portal.Account.Tickets.Reply(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return p.Print(t, nil)
			})
		},
	}

	closeCmd := &cobra.Command{
		Use:   "close <ticket-id>",
		Short: "Close a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.with(cmd, func(ctx context.Context, rt *runtime, p printer) error {
				msg, err := rt.portal.Account.Tickets.Close(ctx, args[0])
				if err != nil {
					return err
				}
				return p.Message(msg.Message)
			})
		},
	}

	cmd.AddCommand(reply, closeCmd)
	return cmd
}
