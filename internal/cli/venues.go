package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirinyoku/canteen-go/internal/domain"
)

// NewVenuesCommand creates the venues command group.
func NewVenuesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "venues",
		Short: "Manage the venue catalog",
	}

	cmd.AddCommand(newVenuesListCommand(rootOpts))
	cmd.AddCommand(newVenuesAddCommand(rootOpts))
	cmd.AddCommand(newVenuesRenameCommand(rootOpts))
	cmd.AddCommand(newVenuesDeleteCommand(rootOpts))

	return cmd
}

func newVenuesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List venues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := rootOpts.runtime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			venues, err := rt.Services.Catalog.ListVenues(cmd.Context())
			if err != nil {
				return err
			}

			return rootOpts.print(cmd.OutOrStdout(), venues, func() string {
				lines := make([]string, 0, len(venues))
				for _, v := range venues {
					lines = append(lines, fmt.Sprintf("%d\t%s", v.ID, v.Name))
				}
				return strings.Join(lines, "\n")
			})
		},
	}
}

func newVenuesAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a venue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := rootOpts.runtime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			v, err := rt.Services.Catalog.AddVenue(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return rootOpts.print(cmd.OutOrStdout(), v, func() string {
				return fmt.Sprintf("added venue %d %q", v.ID, v.Name)
			})
		},
	}
}

func newVenuesRenameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <new-name>",
		Short: "Rename a venue and update the tickets that reference it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			rt, err := rootOpts.runtime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.Services.Catalog.RenameVenue(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}

			return rootOpts.print(cmd.OutOrStdout(), res, func() string {
				s := fmt.Sprintf("renamed %q to %q: %d ticket(s) updated, %d failed",
					res.OldName, res.Venue.Name, res.TicketsUpdated, res.TicketsFailed)
				if res.CascadeError != "" {
					s += "\ncascade: " + res.CascadeError
				}
				if res.Partial() {
					s += "\nrun `canteen repair` to reconcile"
				}
				return s
			})
		},
	}
}

func newVenuesDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var policy string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a venue",
		Long: `Delete a venue. With --policy=block (default) the delete is refused while
any ticket references the venue; --policy=clear clears those references.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			rt, err := rootOpts.runtime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.Services.Catalog.DeleteVenue(cmd.Context(), id, domain.DeletePolicy(policy))
			if err != nil {
				return err
			}

			return rootOpts.print(cmd.OutOrStdout(), res, func() string {
				return fmt.Sprintf("deleted %q (%s): %d ticket(s) cleared, %d failed",
					res.VenueName, res.Policy, res.TicketsCleared, res.TicketsFailed)
			})
		},
	}

	cmd.Flags().StringVar(&policy, "policy", string(domain.DeletePolicyBlock), "block | clear")

	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
