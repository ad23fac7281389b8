package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func seenCmd() *cobra.Command {
	seenRoot := &cobra.Command{
		Use:   "seen",
		Short: "Inspect or reset the notification history",
		Long: "The notification history holds every item that was already reported.\n" +
			"Items in it are never reported again.",
	}

	seenRoot.PersistentFlags().String("seen-file", "", "seen store: CSV path, sqlite://path, or postgres:// DSN")
	seenRoot.AddCommand(seenListCmd(), seenResetCmd())

	return seenRoot
}

func seenListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reported items",
		Example: `  fundgrube-watcher seen list
  fundgrube-watcher seen list --seen-file sqlite://seen.db --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, "")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(s, a.log)

			entries, err := s.Entries(ctx)
			if err != nil {
				return fmt.Errorf("listing seen items: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return outputJSON(out, entries)
			}
			if len(entries) == 0 {
				_, err := fmt.Fprintln(out, "No items reported yet.")
				return err
			}
			return printSeenTable(out, entries)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

func seenResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget every reported item",
		Long: "Clear the notification history. The next run reports every current\n" +
			"match again.",
		Example: `  fundgrube-watcher seen reset --yes`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset the history without --yes")
			}

			a, err := loadApp(cmd, "")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(s, a.log)

			if err := s.Reset(ctx); err != nil {
				return fmt.Errorf("resetting seen items: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "History at %s cleared.\n", redactDSN(a.cfg.Seen.Path))
			return err
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")

	return cmd
}
