package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lakewap/internal/config"
	"lakewap/internal/db"
	"lakewap/internal/domain"
	"lakewap/internal/repository"
)

// openMetastore opens just the SQLite metastore, without touching the
// DuckDB store. Read-only commands use this path.
func openMetastore(cfg *config.Config) (*repository.RunRepo, *repository.AuditRepo, func(), error) {
	meta, err := db.OpenMetastore(cfg.MetaDBPath)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() { _ = meta.Close() }
	return repository.NewRunRepo(meta.WriteDB, meta.ReadDB), repository.NewAuditRepo(meta.WriteDB, meta.ReadDB), closeFn, nil
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded workflow runs",
	}
	cmd.AddCommand(newRunsListCmd())
	cmd.AddCommand(newRunsShowCmd())
	return cmd
}

func newRunsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadEnv()
			if err != nil {
				return err
			}
			runs, _, closeFn, err := openMetastore(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			records, err := runs.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN ID\tTABLE\tSTATUS\tBRANCH\tROWS\tFAILED\tSTARTED")
			for _, r := range records {
				rows, failed := "-", "-"
				if r.RowCount != nil {
					rows = fmt.Sprintf("%d", *r.RowCount)
				}
				if r.FailedChecks != nil {
					failed = fmt.Sprintf("%d", *r.FailedChecks)
				}
				fmt.Fprintf(w, "%s\t%s.%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Namespace, r.Table, r.Status, r.Branch, rows, failed,
					r.StartedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadEnv()
			if err != nil {
				return err
			}
			runs, audit, closeFn, err := openMetastore(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			run, err := runs.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRun(run)

			events, err := audit.ListByRun(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			if len(events) > 0 {
				fmt.Println("events:")
				for _, e := range events {
					fmt.Printf("  %s  %-10s %s\n", e.CreatedAt.Format("15:04:05"), e.Phase, e.Detail)
				}
			}
			return nil
		},
	}
}

func printRun(r *domain.RunRecord) {
	fmt.Printf("run:     %s\n", r.ID)
	fmt.Printf("table:   %s.%s\n", r.Namespace, r.Table)
	fmt.Printf("source:  %s\n", r.SourceURI)
	fmt.Printf("status:  %s\n", r.Status)
	fmt.Printf("branch:  %s\n", r.Branch)
	fmt.Printf("policy:  on_success=%s on_failure=%s\n", r.OnSuccess, r.OnFailure)
	if r.RowCount != nil {
		fmt.Printf("rows:    %d\n", *r.RowCount)
	}
	if r.FailedChecks != nil {
		fmt.Printf("failed:  %d check(s)\n", *r.FailedChecks)
	}
	if r.ErrorMessage != nil {
		fmt.Printf("error:   %s\n", *r.ErrorMessage)
	}
}
