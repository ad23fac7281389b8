// Package cmd implements the fundgrube-watcher CLI commands.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	settingsFile string
	envFile      string
	verbose      int

	rootCmd = &cobra.Command{
		Use:   "fundgrube-watcher",
		Short: "Watch MediaMarkt and Saturn Fundgrube listings for bargains",
		Long: "fundgrube-watcher polls the Fundgrube clearance listings of MediaMarkt and\n" +
			"Saturn, matches them against your search rules, and notifies you once\n" +
			"about every new item that fits a rule.",
		SilenceUsage: true,
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		StringVar(&settingsFile, "settings", "", "settings file (YAML); environment variables override it")
	rootCmd.PersistentFlags().
		StringVar(&envFile, "env-file", "", "file with KEY=value environment variables (default .env if present)")
	rootCmd.PersistentFlags().
		CountVarP(&verbose, "verbose", "v", "increase log verbosity (-v info, -vv debug)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(seenCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(remoteCmd())
	rootCmd.AddCommand(versionCommand())
}

// newViper returns the viper instance settings are loaded into. Flags that
// mirror a setting are bound by the commands that define them.
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	if f := cmd.Flags().Lookup("seen-file"); f != nil && f.Changed {
		if err := v.BindPFlag("seen.path", f); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func withTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), d)
}
