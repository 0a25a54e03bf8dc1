package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Erase items whose cooling-off period ended and send due reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *App) error {
				s, err := a.scheduler(ctx)
				if err != nil {
					return err
				}
				rep, err := s.Sweep(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "checked %d, deleted %d, reminded %d, failed %d\n",
					rep.Checked, rep.Deleted, rep.Reminded, rep.Failed)
				return nil
			})
		},
	}
}

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the cooling-off sweep periodically until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *App) error {
				s, err := a.scheduler(ctx)
				if err != nil {
					return err
				}
				a.log.Info(ctx, "daemon started", "interval", a.cfg.SweepInterval)
				s.Run(ctx, a.cfg.SweepInterval)
				a.log.Info(ctx, "daemon stopped")
				return nil
			})
		},
	}
}
