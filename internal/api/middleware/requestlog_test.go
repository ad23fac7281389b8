package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		route         string
		path          string
		status        int
		providedReqID string
		wantLogFields []string
	}{
		{
			name:   "successful list logs at info with generated ID",
			method: http.MethodGet,
			route:  "/api/v1/seen",
			path:   "/api/v1/seen",
			status: http.StatusOK,
			wantLogFields: []string{
				"level=INFO",
				"method=GET",
				"path=/api/v1/seen",
				"route=/api/v1/seen",
				"status=200",
				"duration_ms=",
				"request_id=",
			},
		},
		{
			name:   "route template is logged next to the raw path",
			method: http.MethodDelete,
			route:  "/api/v1/seen/:store",
			path:   "/api/v1/seen/saturn",
			status: http.StatusNoContent,
			wantLogFields: []string{
				"method=DELETE",
				"path=/api/v1/seen/saturn",
				"route=/api/v1/seen/:store",
				"status=204",
			},
		},
		{
			name:   "client error stays at info",
			method: http.MethodPost,
			route:  "/api/v1/run",
			path:   "/api/v1/run",
			status: http.StatusConflict,
			wantLogFields: []string{
				"level=INFO",
				"status=409",
			},
		},
		{
			name:   "server error logs at error",
			method: http.MethodPost,
			route:  "/api/v1/run",
			path:   "/api/v1/run",
			status: http.StatusBadGateway,
			wantLogFields: []string{
				"level=ERROR",
				"status=502",
			},
		},
		{
			name:          "uses provided request ID",
			method:        http.MethodGet,
			route:         "/api/v1/run/last",
			path:          "/api/v1/run/last",
			status:        http.StatusOK,
			providedReqID: "custom-req-id-123",
			wantLogFields: []string{
				"request_id=custom-req-id-123",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			e := echo.New()
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			if tt.providedReqID != "" {
				req.Header.Set(requestIDHeader, tt.providedReqID)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetPath(tt.route)

			handler := RequestLog(logger)(func(c echo.Context) error {
				return c.NoContent(tt.status)
			})

			require.NoError(t, handler(c))

			logOutput := buf.String()
			for _, field := range tt.wantLogFields {
				assert.Contains(t, logOutput, field)
			}

			respID := rec.Header().Get(requestIDHeader)
			assert.NotEmpty(t, respID)
			if tt.providedReqID != "" {
				assert.Equal(t, tt.providedReqID, respID)
			}
			assert.Equal(t, respID, c.Get("request_id"))
		})
	}
}

func TestRequestLog_ProbeSequences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		statuses []int
		logged   []bool // whether call i writes a line
	}{
		{
			name:     "healthz logs only the first success",
			path:     "/healthz",
			statuses: []int{200, 200, 200},
			logged:   []bool{true, false, false},
		},
		{
			name:     "readyz failures are never suppressed",
			path:     "/readyz",
			statuses: []int{503, 503},
			logged:   []bool{true, true},
		},
		{
			name:     "failure re-arms the next success",
			path:     "/readyz",
			statuses: []int{200, 200, 503, 200, 200},
			logged:   []bool{true, false, true, true, false},
		},
		{
			name:     "any 2xx counts as success",
			path:     "/healthz",
			statuses: []int{200, 204},
			logged:   []bool{true, false},
		},
		{
			name:     "api routes always log",
			path:     "/api/v1/seen",
			statuses: []int{200, 200, 200},
			logged:   []bool{true, true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			handler := RequestLog(slog.New(slog.NewTextHandler(&buf, nil)))

			e := echo.New()
			for i, status := range tt.statuses {
				before := buf.Len()

				c := e.NewContext(httptest.NewRequest(http.MethodGet, tt.path, http.NoBody), httptest.NewRecorder())
				require.NoError(t, handler(func(c echo.Context) error {
					return c.NoContent(status)
				})(c))

				line := buf.String()[before:]
				if !tt.logged[i] {
					assert.Empty(t, line, "call %d (status %d)", i, status)
					continue
				}
				require.NotEmpty(t, line, "call %d (status %d)", i, status)
				if status >= 300 {
					assert.Contains(t, line, "level=WARN")
				}
			}
		})
	}
}

func TestRequestLog_ProbeStateIsPerPath(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := RequestLog(slog.New(slog.NewTextHandler(&buf, nil)))(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	e := echo.New()
	for _, path := range []string{"/healthz", "/readyz", "/healthz", "/readyz"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, path, http.NoBody), httptest.NewRecorder())
		require.NoError(t, handler(c))
	}

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("path=/healthz")))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("path=/readyz")))
}
