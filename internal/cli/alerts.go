package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kirinyoku/canteen-go/internal/config"
	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/queue"
)

// NewAlertsCommand creates the alerts command, which tails the cascade
// failure queue.
func NewAlertsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "Print incomplete-cascade alerts as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			if cfg.Alerts.RabbitMQURL == "" {
				return errors.New("RABBITMQ_URL is not set")
			}

			consumer := queue.NewConsumer(
				cfg.Alerts.RabbitMQURL,
				cfg.Alerts.Queue,
				printAlert(rootOpts, cmd.OutOrStdout()),
				rootOpts.logger(cmd.ErrOrStderr()),
			)

			err = consumer.Run(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func printAlert(rootOpts *RootOptions, w io.Writer) queue.Handler {
	return func(_ context.Context, ev domain.CascadeFailedEvent) error {
		if err := rootOpts.print(w, ev, func() string { return queue.FormatAlert(ev) }); err != nil {
			return fmt.Errorf("print alert: %w", err)
		}
		return nil
	}
}
