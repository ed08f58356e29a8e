package metricsvc

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Middleware(t *testing.T) {
	m := New()
	app := echo.New()
	app.Use(m.Middleware())
	app.GET("/rooms/:id", func(ctx echo.Context) error { return ctx.NoContent(http.StatusNoContent) })
	app.GET("/boom", func(ctx echo.Context) error { return errors.New("boom") })

	for _, path := range []string{"/rooms/1", "/rooms/2", "/boom"} {
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/rooms/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/boom", "500")))
}

func TestMetrics_Observers(t *testing.T) {
	m := New()
	m.ObserveRefresh(time.Millisecond, nil)
	m.ObserveRefresh(time.Millisecond, errors.New("db down"))
	m.ObserveRefresh(time.Millisecond, nil)
	m.ObserveLayout(time.Microsecond, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.refreshes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("error")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ratiba_calendar_layout_events_count 1"))
}
