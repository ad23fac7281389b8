package engine

import (
	"context"
	"fmt"

	"github.com/donaldgifford/fundgrube-watcher/internal/metrics"
	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

// deliver sends the new matches as one notification, then records them as
// seen. Failed notifications are not recorded, so the next run offers the
// same matches again. Dry runs never record.
func (eng *Engine) deliver(ctx context.Context, fresh []domain.Match) (int, error) {
	ctx, span := tracer.Start(ctx, "engine.deliver")
	defer span.End()

	if err := eng.notifier.SendMatches(ctx, fresh); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		eng.log.Error("notification failed", "count", len(fresh), "error", err)
		return 0, err
	}
	metrics.NotificationsSentTotal.WithLabelValues("matches").Inc()

	if eng.dryRun {
		eng.log.Info("dry run, not recording seen items", "count", len(fresh))
		return len(fresh), nil
	}

	if err := eng.seen.Record(ctx, fresh, eng.now()); err != nil {
		return len(fresh), fmt.Errorf("recording seen items: %w", err)
	}
	metrics.SeenItems.Add(float64(len(fresh)))

	return len(fresh), nil
}
