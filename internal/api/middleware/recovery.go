package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/fundgrube-watcher/internal/metrics"
)

const stackSize = 8 << 10

// problem mirrors the RFC 9457 body huma writes for its own errors, so
// clients decode a recovered panic the same way as any other failure.
type problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// Recovery returns Echo middleware that turns a handler panic into a 500
// problem response. The panic value, route, request ID and stack are logged
// and counted per route.
func Recovery(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				buf := make([]byte, stackSize)
				buf = buf[:runtime.Stack(buf, false)]

				route := routeLabel(c)
				metrics.HTTPPanicsTotal.WithLabelValues(route).Inc()

				log.Error("handler panic",
					"panic", fmt.Sprint(r),
					"method", c.Request().Method,
					"route", route,
					"request_id", requestID(c),
					"stack", string(buf),
				)

				if c.Response().Committed {
					err = nil
					return
				}

				c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
				err = c.JSON(http.StatusInternalServerError, problem{
					Title:  http.StatusText(http.StatusInternalServerError),
					Status: http.StatusInternalServerError,
					Detail: "the request could not be completed",
				})
			}()
			return next(c)
		}
	}
}

// requestID returns the ID set by RequestLog, falling back to the response
// header when RequestLog is not installed inside Recovery.
func requestID(c echo.Context) string {
	if id, ok := c.Get("request_id").(string); ok {
		return id
	}
	return c.Response().Header().Get(requestIDHeader)
}
