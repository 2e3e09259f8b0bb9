package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
)

var _ port.GalleryMetrics = (*Metrics)(nil)

func TestMetrics_GalleryCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAdmission("partial", 2, 1)
	m.ObserveAdmission("rejected", 0, 3)
	m.ObserveRotation("left", "ok")
	m.ObservePersistence("save", "error")
	m.SetCollectionSize(4)

	if got := testutil.ToFloat64(m.AdmissionsTotal.WithLabelValues("partial")); got != 1 {
		t.Fatalf("expected 1 partial admission, got %v", got)
	}
	if got := testutil.ToFloat64(m.AdmittedImages); got != 2 {
		t.Fatalf("expected 2 admitted images, got %v", got)
	}
	if got := testutil.ToFloat64(m.RejectedImages); got != 4 {
		t.Fatalf("expected 4 rejected images, got %v", got)
	}
	if got := testutil.ToFloat64(m.RotationsTotal.WithLabelValues("left", "ok")); got != 1 {
		t.Fatalf("expected 1 rotation, got %v", got)
	}
	if got := testutil.ToFloat64(m.PersistenceTotal.WithLabelValues("save", "error")); got != 1 {
		t.Fatalf("expected 1 failed save, got %v", got)
	}
	if got := testutil.ToFloat64(m.CollectionSize); got != 4 {
		t.Fatalf("expected size 4, got %v", got)
	}
}

func TestMetrics_MiddlewareRecordsStatus(t *testing.T) {
	m := New(prometheus.NewRegistry())
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/images/3", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/api/v1/images/{index}", http.MethodDelete, "404"))
	if got != 1 {
		t.Fatalf("expected request to be counted, got %v", got)
	}
}

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/ws", "/ws"},
		{"/api/v1/gallery", "/api/v1/gallery"},
		{"/api/v1/images/0", "/api/v1/images/{index}"},
		{"/api/v1/images/4/rotate", "/api/v1/images/{index}/rotate"},
		{"/api/v1/images/1/content", "/api/v1/images/{index}/content"},
		{"/api/v1/images/2/preview", "/api/v1/images/{index}/preview"},
		{"/api/v1/images/0/junk17", "other"},
		{"/api/v1/images/0/rotate/extra", "other"},
		{"/api/v2/unknown", "/api/*"},
		{"/favicon.ico", "other"},
	}

	for _, tc := range tests {
		if got := normalizeRoute(tc.path); got != tc.want {
			t.Errorf("normalizeRoute(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestMiddleware_UnknownImagePathsShareOneSeries(t *testing.T) {
	m := New(prometheus.NewRegistry())
	handler := m.Middleware(http.NotFoundHandler())

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/images/0/junk%d", i), nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.CollectAndCount(m.RequestsTotal); got != 1 {
		t.Fatalf("expected 1 series, got %d", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("other", http.MethodGet, "404")); got != 50 {
		t.Fatalf("expected 50 requests on route other, got %v", got)
	}
}
