package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistered(t *testing.T) {
	t.Parallel()

	// Verify all metrics are non-nil (registered via promauto on package init).
	assert.NotNil(t, HTTPRequestDuration)
	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, HealthzUp)
	assert.NotNil(t, ReadyzUp)
	assert.NotNil(t, FetchRequestsTotal)
	assert.NotNil(t, FetchDuration)
	assert.NotNil(t, FetchItemsTotal)
	assert.NotNil(t, FetchRetriesTotal)
	assert.NotNil(t, FetchErrorsTotal)
	assert.NotNil(t, RunsTotal)
	assert.NotNil(t, RunDuration)
	assert.NotNil(t, MatchesTotal)
	assert.NotNil(t, NewMatchesTotal)
	assert.NotNil(t, SeenItems)
	assert.NotNil(t, LastRunTimestamp)
	assert.NotNil(t, NotificationsSentTotal)
	assert.NotNil(t, NotificationDuration)
	assert.NotNil(t, NotificationFailuresTotal)
}

func TestFetchRequestsTotal_Labels(t *testing.T) {
	t.Parallel()

	c := FetchRequestsTotal.WithLabelValues("metrics-test-store", "200")
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.InDelta(t, before+1, testutil.ToFloat64(c), 0.0001)
}
