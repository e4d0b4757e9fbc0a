package main

import (
	"fmt"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/worker/reauthorize"
	"github.com/spf13/cobra"
)

func reauthorizeCmd() *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "reauthorize",
		Short: "Enqueue a re-authorization run",
		Long: `Enqueue one reauthorize init job for the current scheduler slot.

Running the command twice within the same slot enqueues nothing the second
time. With --run the jobs are processed in this process until the queue is
drained, which is useful with the memory driver.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			scheduler := reauthorize.NewScheduler(a.queue, cfg.Reauthorization.Interval, logger)
			created, err := scheduler.Trigger(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintln(cmd.OutOrStdout(), "a re-authorization run is already queued for this slot")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "re-authorization run queued")
			}

			if !runNow {
				return nil
			}

			runner := a.newRunner()
			for {
				n, err := runner.RunOnce(ctx)
				if err != nil {
					return err
				}
				if n == 0 {
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVar(&runNow, "run", false, "process the queued jobs before exiting")

	return cmd
}
