package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/fundgrube-watcher/internal/api/handlers"
	mw "github.com/donaldgifford/fundgrube-watcher/internal/api/middleware"
	"github.com/donaldgifford/fundgrube-watcher/internal/engine"
	"github.com/donaldgifford/fundgrube-watcher/internal/store"
	"github.com/donaldgifford/fundgrube-watcher/internal/telemetry"
)

// staleRunFactor is how many missed intervals turn /readyz unavailable.
const staleRunFactor = 3

func watchCmd() *cobra.Command {
	var (
		interval time.Duration
		runNow   bool
	)

	cmd := &cobra.Command{
		Use:   "watch <rules-file>",
		Short: "Run watch cycles on an interval and serve the HTTP API",
		Long: "Run the watch cycle every interval until interrupted. While running, an\n" +
			"HTTP server exposes health probes, Prometheus metrics, and an API to\n" +
			"trigger runs and inspect the notification history.",
		Example: `  fundgrube-watcher watch rules.yaml
  fundgrube-watcher watch rules.yaml --interval 5m --settings settings.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") {
				a.cfg.Schedule.Interval = interval
			}
			return a.watch(cmd.Context(), cmd, runNow)
		},
	}

	cmd.Flags().String("seen-file", "", "seen store: CSV path, sqlite://path, or postgres:// DSN")
	cmd.Flags().DurationVar(&interval, "interval", 15*time.Minute, "time between runs")
	cmd.Flags().BoolVar(&runNow, "run-now", true, "run once immediately on start")

	return cmd
}

func (a *app) watch(ctx context.Context, cmd *cobra.Command, runNow bool) error {
	shutdownTracing, err := telemetry.Setup(ctx, a.cfg.Telemetry.OTLPEndpoint, a.cfg.Telemetry.ServiceName, Version, a.log)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			a.log.Warn("flushing traces", "error", err)
		}
	}()

	eng, s, err := a.newEngine(ctx, cmd.OutOrStdout(), false)
	if err != nil {
		return err
	}
	defer closeStore(s, a.log)

	sched, err := engine.NewScheduler(ctx, eng, a.cfg.Schedule.Interval, a.log)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	e := a.newServer(eng, s)
	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	a.log.Info("starting server", "addr", addr, "interval", a.cfg.Schedule.Interval)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("server error", "error", err)
		}
	}()

	sched.Start()
	if runNow {
		go sched.RunNow()
	}

	<-ctx.Done()
	a.log.Info("shutting down")

	<-sched.Stop().Done()

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	a.log.Info("server stopped")
	return nil
}

func (a *app) newServer(eng *engine.Engine, s store.SeenStore) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(mw.Recovery(a.log))
	e.Use(mw.RequestLog(a.log))
	e.Use(mw.Metrics())

	handlers.RegisterHealthRoutes(e, handlers.NewHealthHandler(s,
		handlers.WithLastRun(eng.LastRun, staleRunFactor*a.cfg.Schedule.Interval)))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("fundgrube-watcher API", Version))
	handlers.RegisterRunRoutes(api, handlers.NewRunHandler(eng))
	handlers.RegisterSeenRoutes(api, handlers.NewSeenHandler(s))
	handlers.RegisterRulesRoutes(api, handlers.NewRulesHandler(a.rules, storeNames(a.cfg)))

	return e
}
