package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lakewap/internal/app"
	"lakewap/internal/service/schedule"
)

func newScheduleCmd(suitePath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run ingestion work orders on cron schedules until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := schedule.LoadEntries(file)
			if err != nil {
				return err
			}

			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}
			suite, err := loadSuite(*suitePath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, suite, logger)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			sched := schedule.NewScheduler(a.Service, logger.With("component", "scheduler"))
			if err := sched.Start(entries); err != nil {
				return err
			}
			if sched.Len() == 0 {
				sched.Stop()
				return fmt.Errorf("no valid schedule entries in %s", file)
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-stop:
			case <-ctx.Done():
			}
			logger.Info("shutting down")
			sched.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Schedule file (YAML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
