package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles prometheus collectors used by the gallery service.
// Реализует port.GalleryMetrics.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
	AdmissionsTotal    *prometheus.CounterVec
	AdmittedImages     prometheus.Counter
	RejectedImages     prometheus.Counter
	RotationsTotal     *prometheus.CounterVec
	PersistenceTotal   *prometheus.CounterVec
	CollectionSize     prometheus.Gauge
	AuthFailures       prometheus.Counter
	RateLimitDropped   prometheus.Counter
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_http_requests_total",
			Help: "Total number of gallery HTTP requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gallery_http_request_duration_seconds",
			Help:    "Gallery HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		AdmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_admissions_total",
			Help: "Total number of evaluated upload batches by outcome.",
		}, []string{"outcome"}),
		AdmittedImages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gallery_admitted_images_total",
			Help: "Total number of images admitted into the collection.",
		}),
		RejectedImages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gallery_rejected_images_total",
			Help: "Total number of candidate files rejected by format or size.",
		}),
		RotationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_rotations_total",
			Help: "Total number of rotation attempts by direction and outcome.",
		}, []string{"direction", "outcome"}),
		PersistenceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_snapshot_operations_total",
			Help: "Total number of snapshot loads and saves by outcome.",
		}, []string{"op", "outcome"}),
		CollectionSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gallery_collection_size",
			Help: "Current number of images in the collection.",
		}),
		AuthFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gallery_auth_failures_total",
			Help: "Total number of auth failures.",
		}),
		RateLimitDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gallery_ratelimit_dropped_total",
			Help: "Total number of requests dropped by rate limiter.",
		}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDurationSec,
		m.AdmissionsTotal,
		m.AdmittedImages,
		m.RejectedImages,
		m.RotationsTotal,
		m.PersistenceTotal,
		m.CollectionSize,
		m.AuthFailures,
		m.RateLimitDropped,
	)

	return m
}

func (m *Metrics) ObserveAdmission(outcome string, admitted, rejected int) {
	m.AdmissionsTotal.WithLabelValues(outcome).Inc()
	if admitted > 0 {
		m.AdmittedImages.Add(float64(admitted))
	}
	if rejected > 0 {
		m.RejectedImages.Add(float64(rejected))
	}
}

func (m *Metrics) ObserveRotation(direction, outcome string) {
	m.RotationsTotal.WithLabelValues(direction, outcome).Inc()
}

func (m *Metrics) ObservePersistence(op, outcome string) {
	m.PersistenceTotal.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) SetCollectionSize(n int) {
	m.CollectionSize.Set(float64(n))
}

// IncAuthFailures satisfies the auth middleware's failure hook.
func (m *Metrics) IncAuthFailures() {
	m.AuthFailures.Inc()
}

// IncRateLimitDropped satisfies the rate limiter's drop hook.
func (m *Metrics) IncRateLimitDropped() {
	m.RateLimitDropped.Inc()
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		route := normalizeRoute(r.URL.Path)
		m.RequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		m.RequestDurationSec.WithLabelValues(route, r.Method, status).Observe(time.Since(startedAt).Seconds())
	})
}

var imageActions = map[string]struct{}{
	"content": {},
	"rotate":  {},
	"preview": {},
}

// normalizeRoute держит кардинальность label-а route ограниченной:
// индексы изображений схлопываются в {index}, неизвестные суффиксы в "other".
func normalizeRoute(path string) string {
	switch {
	case path == "/":
		return "/"
	case path == "/ws", path == "/healthz", path == "/readyz", path == "/metrics":
		return path
	case path == "/api/v1/gallery", path == "/api/v1/images", path == "/api/v1/preview", path == "/api/v1/notification":
		return path
	case strings.HasPrefix(path, "/api/v1/images/"):
		rest := strings.TrimPrefix(path, "/api/v1/images/")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) == 1 {
			return "/api/v1/images/{index}"
		}
		if _, ok := imageActions[parts[1]]; ok {
			return "/api/v1/images/{index}/" + parts[1]
		}
		return "other"
	case path == "/api" || strings.HasPrefix(path, "/api/"):
		return "/api/*"
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Hijack passes websocket upgrades through wrapped ResponseWriter.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

func (rw *statusRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
