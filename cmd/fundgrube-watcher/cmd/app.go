package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/fundgrube-watcher/internal/config"
	"github.com/donaldgifford/fundgrube-watcher/internal/engine"
	"github.com/donaldgifford/fundgrube-watcher/internal/fundgrube"
	"github.com/donaldgifford/fundgrube-watcher/internal/notify"
	"github.com/donaldgifford/fundgrube-watcher/internal/store"
	"github.com/donaldgifford/fundgrube-watcher/pkg/logger"
	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

// app bundles the loaded configuration and the logger built from it.
type app struct {
	cfg   *config.Config
	rules []domain.Rule
	log   *slog.Logger
}

// loadApp reads the env file, the settings, and (when rulesPath is set) the
// rules file. Every problem here is a *config.Error and happens before any
// network I/O.
func loadApp(cmd *cobra.Command, rulesPath string) (*app, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	v, err := newViper(cmd)
	if err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	cfg, err := config.Load(settingsFile, v)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg: cfg,
		log: logger.NewWithWriter(
			cmd.ErrOrStderr(),
			logger.VerbosityLevel(cfg.Logging.Level, verbose),
			cfg.Logging.Format,
		),
	}
	slog.SetDefault(a.log)

	if rulesPath != "" {
		a.rules, err = config.LoadRules(rulesPath)
		if err != nil {
			return nil, err
		}
	}

	return a, nil
}

// sources builds one paginated postings client per configured store.
func (a *app) sources() []engine.Source {
	h := a.cfg.HTTP
	out := make([]engine.Source, 0, len(a.cfg.Stores))

	for _, sc := range a.cfg.Stores {
		st := fundgrube.Store{Name: sc.Name, BaseURL: sc.BaseURL}
		log := a.log.With("store", sc.Name)

		client := fundgrube.NewHTTPClient(st,
			fundgrube.WithTimeout(h.Timeout),
			fundgrube.WithUserAgent(h.UserAgent),
			fundgrube.WithRateLimiter(fundgrube.NewRateLimiter(h.RequestsPerSecond, h.Burst)),
			fundgrube.WithRetries(h.Retries),
			fundgrube.WithLogger(log),
		)

		out = append(out, fundgrube.NewPaginator(st, client,
			fundgrube.WithPageSize(h.PageSize),
			fundgrube.WithMaxPages(h.MaxPages),
			fundgrube.WithPaginatorLogger(log),
		))
	}

	return out
}

// notifier builds the delivery channels. Without mail or Discord, or in a
// dry run, matches are printed to out.
func (a *app) notifier(out io.Writer, dryRun bool) notify.Notifier {
	if dryRun {
		return notify.NewConsoleNotifier(out, a.log)
	}

	var channels notify.Multi
	if a.cfg.Mail.Enabled() {
		m := a.cfg.Mail
		channels = append(channels, notify.NewEmailNotifier(notify.EmailConfig{
			Host:          m.Host,
			Port:          m.Port,
			Username:      m.Username,
			Password:      m.Password,
			From:          m.From,
			To:            m.To,
			SenderName:    m.SenderName,
			SubjectPrefix: m.SubjectPrefix,
		}, notify.WithEmailLogger(a.log)))
	}
	if a.cfg.Discord.WebhookURL != "" {
		channels = append(channels, notify.NewDiscordNotifier(a.cfg.Discord.WebhookURL))
	}

	switch len(channels) {
	case 0:
		a.log.Warn("no notification channel configured, printing matches")
		return notify.NewConsoleNotifier(out, a.log)
	case 1:
		return channels[0]
	default:
		return channels
	}
}

// openStore opens the seen store named by the settings.
func (a *app) openStore(ctx context.Context) (store.SeenStore, error) {
	s, err := store.Open(ctx, a.cfg.Seen.Path)
	if err != nil {
		return nil, fmt.Errorf("opening seen store: %w", err)
	}
	return s, nil
}

// newEngine wires the run pipeline. The caller closes the returned store.
func (a *app) newEngine(ctx context.Context, out io.Writer, dryRun bool) (*engine.Engine, store.SeenStore, error) {
	s, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	n := a.notifier(out, dryRun)
	opts := []engine.EngineOption{
		engine.WithLogger(a.log),
		engine.WithDryRun(dryRun),
	}
	if a.cfg.Mail.Enabled() && a.cfg.Mail.NotifyErrors {
		opts = append(opts, engine.WithErrorReporter(
			notify.NewErrorState(a.cfg.Mail.ErrorStatePath, n, a.log),
		))
	}

	return engine.NewEngine(a.sources(), a.rules, s, n, opts...), s, nil
}

func closeStore(s store.SeenStore, log *slog.Logger) {
	if err := s.Close(); err != nil {
		log.Warn("closing seen store", "error", err)
	}
}

func storeNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Stores))
	for _, s := range cfg.Stores {
		names = append(names, s.Name)
	}
	return names
}

