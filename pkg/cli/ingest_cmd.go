package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lakewap/internal/app"
	"lakewap/internal/domain"
	"lakewap/internal/service/schedule"
)

func newIngestCmd(suitePath *string) *cobra.Command {
	var (
		table     string
		namespace string
		sourceURI string
		onSuccess string
		onFailure string
		minRows   int64
		strict    bool
		file      string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run write-audit-publish ingestions",
		Long: "Runs a single ingestion described by flags, or every work order in a\n" +
			"--file batch (the schedule-file format; cron expressions are ignored).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			if file != "" {
				entries, err := schedule.LoadEntries(file)
				if err != nil {
					return err
				}
				orders := make([]domain.WorkOrder, len(entries))
				for i, e := range entries {
					orders[i] = e.Order
				}
				results, err := a.Service.RunAll(ctx, orders, cfg.Concurrency)
				for _, r := range results {
					if r != nil {
						printResult(os.Stdout, r)
					}
				}
				return err
			}

			order := domain.WorkOrder{
				Table:         table,
				Namespace:     namespace,
				SourceURI:     sourceURI,
				OnSuccess:     domain.SuccessPolicy(onSuccess),
				OnFailure:     domain.FailurePolicy(onFailure),
				MinRows:       minRows,
				StrictQuality: strict,
			}

			result, err := a.Service.RunWAP(ctx, order)
			if result != nil {
				printResult(os.Stdout, result)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "Target table name")
	cmd.Flags().StringVar(&namespace, "namespace", "", "Target namespace")
	cmd.Flags().StringVar(&sourceURI, "source", "", "Source URI (parquet, csv, or json; local or s3://)")
	cmd.Flags().StringVar(&onSuccess, "on-success", string(domain.SuccessInspect), "Success policy: inspect or merge")
	cmd.Flags().StringVar(&onFailure, "on-failure", string(domain.FailureKeep), "Failure policy: keep or delete")
	cmd.Flags().Int64Var(&minRows, "min-rows", 1, "Row-count floor for the quality gate")
	cmd.Flags().BoolVar(&strict, "strict", false, "Abort instead of publishing when the gate fails")
	cmd.Flags().StringVar(&file, "file", "", "Run every work order in this file instead of flags")
	cmd.MarkFlagsOneRequired("table", "file")
	cmd.MarkFlagsMutuallyExclusive("table", "file")
	return cmd
}

func printResult(w *os.File, r *domain.WorkflowResult) {
	fmt.Fprintf(w, "run:    %s\n", r.RunID)
	fmt.Fprintf(w, "branch: %s\n", r.Branch)
	if r.Verdict != nil {
		fmt.Fprintf(w, "audit:  %s\n", r.Verdict.Summary())
		for _, o := range r.Verdict.Outcomes {
			fmt.Fprintf(w, "  [%s] %s (%s): %s\n", o.Status, o.Spec.ID, o.Spec.Tier, o.Message)
		}
	}
	if r.Success {
		fmt.Fprintln(w, "status: ok")
	}
}
