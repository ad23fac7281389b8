package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <rules-file>",
		Short: "Validate the rules file and settings",
		Long: "Load the rules file, the settings file, and the environment exactly as\n" +
			"run does, report every problem, and print the resulting setup. No\n" +
			"network requests are made.",
		Example: `  fundgrube-watcher check rules.json --settings settings.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, args[0])
			if err != nil {
				return err
			}
			return printCheck(cmd.OutOrStdout(), a)
		},
	}

	cmd.Flags().String("seen-file", "", "seen store: CSV path, sqlite://path, or postgres:// DSN")

	return cmd
}

func printCheck(w io.Writer, a *app) error {
	tw := newTabWriter(w)

	tw.writef("STORE\tURL\n")
	for _, s := range a.cfg.Stores {
		tw.writef("%s\t%s\n", s.Name, s.BaseURL)
	}
	tw.writef("\nTERM\tMAX PRICE\n")
	for _, r := range a.rules {
		tw.writef("%s\t%.2f\n", r.Term, r.MaxPrice)
	}

	mail := "disabled (matches are printed)"
	if a.cfg.Mail.Enabled() {
		mail = fmt.Sprintf("%s -> %s via %s", a.cfg.Mail.From, a.cfg.Mail.To, a.cfg.Mail.Addr())
	}
	tw.writef("\nSeen store:\t%s\n", redactDSN(a.cfg.Seen.Path))
	tw.writef("Mail:\t%s\n", mail)
	tw.writef("Discord:\t%v\n", a.cfg.Discord.WebhookURL != "")

	return tw.finish()
}
