package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: сколько времени заняла обработка запроса
	RequestDuration *prometheus.HistogramVec

	// Traffic: общее кол-во запросов
	TotalRequests *prometheus.CounterVec

	// Errors: отказы по классам (authz_deny, rate_limit, internal)
	ErrorTotal *prometheus.CounterVec

	// Audit: заполненность буфера (backpressure)
	AuditBufferFill prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vizitka_request_duration_seconds",
			Help:    "Histogram of request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route", "status"}),

		TotalRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "vizitka_requests_total",
			Help: "Total number of processed requests.",
		}, []string{"method", "route"}),

		ErrorTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "vizitka_errors_total",
			Help: "Total number of errors by type.",
		}, []string{"type"}), // типы: authz_deny, rate_limit, internal

		AuditBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "vizitka_audit_buffer_utilization",
			Help: "Current number of events in audit buffer.",
		}),
	}
}

// Instrument оборачивает хендлеры записью latency/traffic/errors.
// Маршрут берём из chi route pattern, а не из сырого URL,
// иначе каждый uuid раздует кардинальность меток.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chiRoutePattern(r)
		status := strconv.Itoa(ww.Status())

		m.TotalRequests.WithLabelValues(r.Method, route).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())

		switch ww.Status() {
		case http.StatusForbidden:
			m.ErrorTotal.WithLabelValues("authz_deny").Inc()
		case http.StatusTooManyRequests:
			m.ErrorTotal.WithLabelValues("rate_limit").Inc()
		case http.StatusInternalServerError:
			m.ErrorTotal.WithLabelValues("internal").Inc()
		}
	})
}

func chiRoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
