// Package metricsvc exposes the API's prometheus collectors.
package metricsvc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ratiba"

type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	layoutDuration  prometheus.Histogram
	layoutEvents    prometheus.Histogram
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
}

// New registers the collectors on a private registry, along with the go & process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latencies by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		layoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "calendar",
			Name:      "layout_duration_seconds",
			Help:      "Time spent laying out a day column.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		layoutEvents: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "calendar",
			Name:      "layout_events",
			Help:      "Number of events laid out per day column.",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "refreshes_total",
			Help:      "Timetable snapshot refreshes by result.",
		}, []string{"result"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "refresh_duration_seconds",
			Help:      "Time spent reloading the timetable snapshot.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.layoutDuration,
		m.layoutEvents,
		m.refreshes,
		m.refreshDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts & times every request by its route pattern.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			started := time.Now()
			if err := next(ctx); err != nil {
				// let the error handler write the response so the status is known
				ctx.Error(err)
			}
			status := ctx.Response().Status

			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			method := ctx.Request().Method
			m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(method, route).Observe(time.Since(started).Seconds())
			return nil
		}
	}
}

// ObserveLayout records one day column layout.
func (m *Metrics) ObserveLayout(took time.Duration, events int) {
	m.layoutDuration.Observe(took.Seconds())
	m.layoutEvents.Observe(float64(events))
}

// ObserveRefresh records one snapshot refresh attempt.
func (m *Metrics) ObserveRefresh(took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.refreshes.WithLabelValues(result).Inc()
	m.refreshDuration.Observe(took.Seconds())
}
