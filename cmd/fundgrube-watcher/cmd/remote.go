package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/fundgrube-watcher/internal/api/client"
)

func remoteCmd() *cobra.Command {
	var (
		server  string
		timeout time.Duration
		asJSON  bool
	)

	remoteRoot := &cobra.Command{
		Use:   "remote",
		Short: "Talk to a running watch server",
		Long: "Commands that call the HTTP API of a fundgrube-watcher started with the\n" +
			"watch command.",
	}
	remoteRoot.PersistentFlags().StringVar(&server, "server", "http://localhost:8080", "API server URL")
	remoteRoot.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "request timeout")
	remoteRoot.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	newClient := func() *apiclient.Client {
		return apiclient.New(server)
	}

	runNow := &cobra.Command{
		Use:     "run",
		Short:   "Trigger a run on the server and print its result",
		Example: `  fundgrube-watcher remote run --server http://fundgrube.lan:8080`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd, timeout)
			defer cancel()

			res, err := newClient().TriggerRun(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return outputJSON(cmd.OutOrStdout(), res)
			}
			if err := printRunResult(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if len(res.Errors) > 0 {
				return fmt.Errorf("run %s finished with %d errors", res.RunID, len(res.Errors))
			}
			return nil
		},
	}

	last := &cobra.Command{
		Use:   "last",
		Short: "Show the most recent run of the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd, timeout)
			defer cancel()

			res, err := newClient().LastRun(ctx)
			if apiclient.IsNotFound(err) {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "No run has completed yet.")
				return err
			}
			if err != nil {
				return err
			}
			if asJSON {
				return outputJSON(cmd.OutOrStdout(), res)
			}
			return printRunResult(cmd.OutOrStdout(), res)
		},
	}

	var limit, offset int
	seen := &cobra.Command{
		Use:   "seen",
		Short: "List the items the server already reported",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd, timeout)
			defer cancel()

			page, err := newClient().ListSeen(ctx, limit, offset)
			if err != nil {
				return err
			}
			if asJSON {
				return outputJSON(cmd.OutOrStdout(), page)
			}
			if err := printSeenTable(cmd.OutOrStdout(), page.Items); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d items\n", len(page.Items), page.Total)
			return err
		},
	}
	seen.Flags().IntVar(&limit, "limit", 0, "number of items (server default 100)")
	seen.Flags().IntVar(&offset, "offset", 0, "pagination offset")

	rules := &cobra.Command{
		Use:   "rules",
		Short: "List the rules the server watches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd, timeout)
			defer cancel()

			r, err := newClient().ListRules(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return outputJSON(cmd.OutOrStdout(), r)
			}

			tw := newTabWriter(cmd.OutOrStdout())
			tw.writef("TERM\tMAX PRICE\n")
			for _, rule := range r.Rules {
				tw.writef("%s\t%.2f\n", rule.Term, rule.MaxPrice)
			}
			tw.writef("\nStores:\t%v\n", r.Stores)
			return tw.finish()
		},
	}

	remoteRoot.AddCommand(runNow, last, seen, rules)

	return remoteRoot
}
