package cmd

import (
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run <rules-file>",
		Short: "Run one watch cycle",
		Long: "Fetch the Fundgrube listings of every store, match them against the rules,\n" +
			"notify about items that were not reported before, and record them.\n" +
			"The exit status is non-zero if any store, the notification, or the\n" +
			"history update failed.",
		Example: `  fundgrube-watcher run rules.json
  fundgrube-watcher run rules.yaml -vv --seen-file /var/lib/fundgrube/seen.csv
  fundgrube-watcher run rules.yaml --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			eng, s, err := a.newEngine(ctx, cmd.OutOrStdout(), dryRun)
			if err != nil {
				return err
			}
			defer closeStore(s, a.log)

			_, err = eng.Run(ctx)
			return err
		},
	}

	cmd.Flags().String("seen-file", "", "seen store: CSV path, sqlite://path, or postgres:// DSN (default old_results.csv)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print matches instead of notifying and record nothing")

	return cmd
}
