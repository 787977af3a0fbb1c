package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newCommandsCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List all commands with their flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, entry := range walkCommands(cmd.Root(), "") {
				if filter != "" && !strings.Contains(entry.path, filter) {
					continue
				}
				fmt.Fprintf(out, "%s: %s\n", entry.path, entry.short)
				entry.flags.VisitAll(func(f *pflag.Flag) {
					fmt.Fprintf(out, "    --%s (%s) %s\n", f.Name, f.Value.Type(), f.Usage)
				})
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "Only show commands whose path contains this substring")
	return cmd
}

type commandEntry struct {
	path  string
	short string
	flags *pflag.FlagSet
}

func walkCommands(cmd *cobra.Command, prefix string) []commandEntry {
	path := strings.TrimSpace(prefix + " " + cmd.Name())
	var out []commandEntry
	if cmd.Runnable() && !cmd.Hidden {
		out = append(out, commandEntry{path: path, short: cmd.Short, flags: cmd.Flags()})
	}
	for _, sub := range cmd.Commands() {
		if sub.Name() == "help" || sub.Name() == "completion" {
			continue
		}
		out = append(out, walkCommands(sub, path)...)
	}
	return out
}
