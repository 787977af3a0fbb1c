package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"lakewap/internal/config"
)

func newChecksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checks",
		Short: "Work with quality-check suites",
	}
	cmd.AddCommand(newChecksValidateCmd())
	return cmd
}

func newChecksValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <suite.yaml>",
		Short: "Validate a quality-check suite file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			suite, err := config.LoadSuite(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d check(s) valid\n", args[0], len(suite))
			for _, c := range suite {
				col := c.Column
				if col == "" {
					col = "<table>"
				}
				fmt.Printf("  %-24s %-10s %-15s %s\n", c.ID, c.Tier, c.Kind, col)
			}
			return nil
		},
	}
}
