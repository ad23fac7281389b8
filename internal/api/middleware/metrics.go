// Package middleware provides Echo middleware for fundgrube-watcher.
package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/donaldgifford/fundgrube-watcher/internal/metrics"
)

// unmatchedRoute labels requests that hit no registered route.
const unmatchedRoute = "unmatched"

// probeGauges are the liveness and readiness routes. They set a 0/1 gauge
// instead of feeding the request counters.
var probeGauges = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

// uncounted routes serve scrapes and API docs.
var uncounted = map[string]struct{}{
	"/metrics":      {},
	"/docs":         {},
	"/openapi.json": {},
	"/openapi.yaml": {},
}

// Metrics returns Echo middleware that records request duration and count
// per method, route template and status.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := routeLabel(c)
			status := c.Response().Status

			if gauge, ok := probeGauges[route]; ok {
				gauge.Set(boolGauge(status >= 200 && status < 300))
				return err
			}
			if _, ok := uncounted[route]; ok {
				return err
			}

			labels := []string{c.Request().Method, route, strconv.Itoa(status)}
			metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()

			return err
		}
	}
}

// routeLabel returns the matched route template. Unrouted requests share
// one label so arbitrary paths cannot grow the series count.
func routeLabel(c echo.Context) string {
	switch route := c.Path(); route {
	case "", "/*":
		return unmatchedRoute
	default:
		return route
	}
}

func boolGauge(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}
