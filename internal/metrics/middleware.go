package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// noModel labels requests that do not address a registered model.
const noModel = "-"

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docset",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route and model",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1, 5},
		},
		[]string{"method", "route", "model"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docset",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, model and status",
		},
		[]string{"method", "route", "model", "status"},
	)
)

var httpMetricsRegistered bool

// RegisterHTTPMetrics registers the HTTP request metrics. Must be called once from main.
func RegisterHTTPMetrics() {
	if httpMetricsRegistered {
		return
	}
	prometheus.MustRegister(httpRequestDuration, httpRequestsTotal)
	httpMetricsRegistered = true
}

// Middleware records request counts and latency labelled by chi route
// pattern and the {model} URL parameter.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			route, model := routeLabels(r, sw.status)
			httpRequestDuration.WithLabelValues(r.Method, route, model).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, route, model, strconv.Itoa(sw.status)).Inc()
		})
	}
}

// routeLabels reads the matched pattern after routing. A 404 keeps the
// model label out of the series so unknown model names cannot grow it.
func routeLabels(r *http.Request, status int) (route, model string) {
	route, model = "unknown", noModel
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return route, model
	}
	if p := rctx.RoutePattern(); p != "" {
		route = p
	}
	if m := rctx.URLParam("model"); m != "" && status != http.StatusNotFound {
		model = m
	}
	return route, model
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
