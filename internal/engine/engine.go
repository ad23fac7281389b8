// Package engine runs one watch cycle: fetch every store, match the items
// against the rules, drop what was already reported, notify, and record.
package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/donaldgifford/fundgrube-watcher/internal/fundgrube"
	"github.com/donaldgifford/fundgrube-watcher/internal/metrics"
	"github.com/donaldgifford/fundgrube-watcher/internal/notify"
	"github.com/donaldgifford/fundgrube-watcher/internal/store"
	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

const instrumentationName = "github.com/donaldgifford/fundgrube-watcher/internal/engine"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)
)

// OTLP counterparts of the run metrics, exported when telemetry is enabled.
var runCounter, newMatchCounter = otelCounters()

func otelCounters() (metric.Int64Counter, metric.Int64Counter) {
	// On error the API still returns a usable no-op instrument.
	runs, _ := meter.Int64Counter("fundgrube.runs",
		metric.WithDescription("Completed watch runs by outcome."))
	fresh, _ := meter.Int64Counter("fundgrube.new_matches",
		metric.WithDescription("Matches not seen in earlier runs."))
	return runs, fresh
}

// Source yields the items of one store lazily. *fundgrube.Paginator
// implements it.
type Source interface {
	Store() fundgrube.Store
	Items(ctx context.Context, req fundgrube.SearchRequest) iter.Seq2[domain.Item, error]
}

// ErrorReporter is told the outcome of every run. *notify.ErrorState
// implements it.
type ErrorReporter interface {
	Report(ctx context.Context, runErr error) error
}

// FetchError reports a store that was skipped because fetching failed.
type FetchError struct {
	Store string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Store, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Kind identifies the failure class for error-state tracking.
func (e *FetchError) Kind() string {
	return "fetch:" + e.Store
}

// StoreResult summarizes one store within a run.
type StoreResult struct {
	Store string `json:"store"`
	Items int    `json:"items"`
	Error string `json:"error,omitempty"`
}

// RunResult summarizes one run.
type RunResult struct {
	RunID     string         `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	DryRun    bool           `json:"dry_run"`
	Stores    []StoreResult  `json:"stores"`
	Fetched   int            `json:"fetched"`
	Matched   int            `json:"matched"`
	New       int            `json:"new"`
	Notified  int            `json:"notified"`
	Duration  time.Duration  `json:"duration"`
	Matches   []domain.Match `json:"matches,omitempty"`
	Errors    []string       `json:"errors,omitempty"`
}

// Engine orchestrates fetching, matching, deduplication, and notification.
type Engine struct {
	sources  []Source
	rules    []domain.Rule
	seen     store.SeenStore
	notifier notify.Notifier
	reporter ErrorReporter
	log      *slog.Logger
	now      func() time.Time
	dryRun   bool

	mu      sync.Mutex
	lastMu  sync.RWMutex
	lastRun *RunResult
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(
	sources []Source,
	rules []domain.Rule,
	s store.SeenStore,
	n notify.Notifier,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		sources:  sources,
		rules:    rules,
		seen:     s,
		notifier: n,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithDryRun makes runs deliver through the notifier without recording
// anything or reporting error state.
func WithDryRun(dry bool) EngineOption {
	return func(e *Engine) {
		e.dryRun = dry
	}
}

// WithErrorReporter sets the error-state reporter.
func WithErrorReporter(r ErrorReporter) EngineOption {
	return func(e *Engine) {
		e.reporter = r
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// LastRun returns the result of the most recent completed run, or nil.
func (eng *Engine) LastRun() *RunResult {
	eng.lastMu.RLock()
	defer eng.lastMu.RUnlock()
	return eng.lastRun
}

// Run executes one watch cycle. Runs are serialized. A failing store is
// skipped and reported as a *FetchError while the other stores continue.
// The returned error joins every failure of the run.
func (eng *Engine) Run(ctx context.Context) (*RunResult, error) {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	start := eng.now()
	res := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: start,
		DryRun:    eng.dryRun,
	}
	log := eng.log.With("run_id", res.RunID)

	ctx, span := tracer.Start(ctx, "engine.run")
	span.SetAttributes(attribute.String("run.id", res.RunID), attribute.Bool("run.dry_run", eng.dryRun))
	defer span.End()

	log.Info("run starting", "stores", len(eng.sources), "rules", len(eng.rules))

	runErr := eng.run(ctx, log, res)

	res.Duration = time.Since(start)
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, "run failed")
		res.Errors = errorStrings(runErr)
	}

	if eng.reporter != nil && !eng.dryRun && ctx.Err() == nil {
		if err := eng.reporter.Report(ctx, runErr); err != nil {
			log.Warn("error state notification failed", "error", err)
		}
	}

	observeRun(ctx, res, runErr)
	eng.lastMu.Lock()
	eng.lastRun = res
	eng.lastMu.Unlock()

	log.Info("run finished",
		"fetched", res.Fetched,
		"matched", res.Matched,
		"new", res.New,
		"notified", res.Notified,
		"duration", res.Duration,
		"failed", runErr != nil,
	)

	return res, runErr
}

func (eng *Engine) run(ctx context.Context, log *slog.Logger, res *RunResult) error {
	seen, err := eng.seen.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading seen items: %w", err)
	}
	metrics.SeenItems.Set(float64(seen.Len()))
	log.Debug("seen items loaded", "count", seen.Len())

	var (
		errs  []error
		items []domain.Item
	)

	for _, src := range eng.sources {
		name := src.Store().Name
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		storeItems, err := eng.fetchStore(ctx, src)
		if err != nil {
			fe := &FetchError{Store: name, Err: err}
			log.Error("store skipped", "store", name, "error", err)
			metrics.FetchErrorsTotal.WithLabelValues(name).Inc()
			res.Stores = append(res.Stores, StoreResult{Store: name, Error: err.Error()})
			errs = append(errs, fe)
			continue
		}

		log.Info("postings found", "store", name, "count", len(storeItems))
		res.Stores = append(res.Stores, StoreResult{Store: name, Items: len(storeItems)})
		items = append(items, storeItems...)
	}
	res.Fetched = len(items)

	matches := domain.MatchItems(items, eng.rules)
	res.Matched = len(matches)
	metrics.MatchesTotal.Add(float64(len(matches)))

	fresh := seen.FilterNew(matches)
	res.New = len(fresh)
	res.Matches = fresh
	metrics.NewMatchesTotal.Add(float64(len(fresh)))
	log.Info("new findings", "count", len(fresh))

	if len(fresh) > 0 {
		notified, err := eng.deliver(ctx, fresh)
		res.Notified = notified
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// fetchStore collects the store's items for every rule. Items are
// deduplicated by id within the store, first occurrence wins.
func (eng *Engine) fetchStore(ctx context.Context, src Source) ([]domain.Item, error) {
	ctx, span := tracer.Start(ctx, "engine.fetch_store")
	span.SetAttributes(attribute.String("fundgrube.store", src.Store().Name))
	defer span.End()

	var (
		items []domain.Item
		ids   = make(map[string]struct{})
	)

	for _, rule := range eng.rules {
		req := fundgrube.SearchRequest{Text: rule.Term, OrderBy: "new"}
		if rule.MaxPrice > 0 {
			req.PriceMax = &rule.MaxPrice
		}

		for it, err := range src.Items(ctx, req) {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "fetch failed")
				return nil, err
			}
			if _, dup := ids[it.ID]; dup {
				continue
			}
			ids[it.ID] = struct{}{}
			items = append(items, it)
		}
	}

	return items, nil
}

func observeRun(ctx context.Context, res *RunResult, runErr error) {
	outcome := "success"
	if runErr != nil {
		outcome = "failure"
	}
	metrics.RunsTotal.WithLabelValues(outcome).Inc()
	metrics.RunDuration.Observe(res.Duration.Seconds())
	metrics.LastRunTimestamp.Set(float64(res.StartedAt.Unix()))

	runCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	newMatchCounter.Add(ctx, int64(res.New))
}

func errorStrings(err error) []string {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range j.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
