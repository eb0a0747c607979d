package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirinyoku/canteen-go/internal/domain"
)

// NewRepairCommand creates the repair command.
func NewRepairCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Clear ticket references to venues that no longer exist",
		Long: `Scan every ticket and clear venue_name where it names no venue in the
catalog. Safe to run repeatedly; a second run finds nothing to do.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := rootOpts.runtime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			rep, err := rt.Services.Catalog.Repair(cmd.Context())
			if err != nil {
				return err
			}

			if err := rootOpts.print(cmd.OutOrStdout(), rep, func() string { return formatRepair(rep) }); err != nil {
				return err
			}
			if rep.Failed > 0 {
				return fmt.Errorf("repair left %d ticket(s) unchanged", rep.Failed)
			}
			return nil
		},
	}
}

func formatRepair(rep *domain.RepairReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "orphaned=%d cleared=%d failed=%d", rep.Orphaned, rep.Cleared, rep.Failed)
	for _, f := range rep.Failures {
		fmt.Fprintf(&b, "\n  ticket %d: %s", f.TicketID, f.Error)
	}
	return b.String()
}
