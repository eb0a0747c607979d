package cli

import (
	"github.com/spf13/cobra"

	"github.com/kirinyoku/canteen-go/internal/app"
	"github.com/kirinyoku/canteen-go/internal/config"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}

			application, err := app.New(cmd.Context(), cfg, rootOpts.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			return application.Run(cmd.Context())
		},
	}
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}

			if err := app.Migrate(cmd.Context(), cfg); err != nil {
				return err
			}

			return rootOpts.print(cmd.OutOrStdout(),
				map[string]string{"status": "ok", "driver": cfg.DB.Driver},
				func() string { return "migrations applied (" + cfg.DB.Driver + ")" },
			)
		},
	}
}
