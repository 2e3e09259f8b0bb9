package http

import (
	"net/http"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/interfaces/http/handler"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/interfaces/http/middleware"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/config"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

// Observability is the HTTP-facing part of the metrics registry.
type Observability interface {
	middleware.FailureCounter
	middleware.DropCounter
	Middleware(next http.Handler) http.Handler
}

// Router настраивает маршруты приложения
type Router struct {
	mux                *http.ServeMux
	galleryPageHandler *handler.GalleryPageHandler
	galleryAPIHandler  *handler.GalleryAPIHandler
	websocketHandler   *handler.WebSocketHandler
	healthHandler      *handler.HealthHandler
	metricsHandler     http.Handler
	observability      Observability
	rateLimiter        *middleware.IPRateLimiter
	security           config.SecurityConfig
	logger             *logger.Logger
}

// NewRouter создает новый router. metricsHandler и observability могут быть nil.
func NewRouter(
	galleryPageHandler *handler.GalleryPageHandler,
	galleryAPIHandler *handler.GalleryAPIHandler,
	websocketHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
	metricsHandler http.Handler,
	observability Observability,
	rateLimiter *middleware.IPRateLimiter,
	security config.SecurityConfig,
	logger *logger.Logger,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		galleryPageHandler: galleryPageHandler,
		galleryAPIHandler:  galleryAPIHandler,
		websocketHandler:   websocketHandler,
		healthHandler:      healthHandler,
		metricsHandler:     metricsHandler,
		observability:      observability,
		rateLimiter:        rateLimiter,
		security:           security,
		logger:             logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	// Probes и scrape без auth (см. middleware.Auth)
	rt.mux.HandleFunc("GET /healthz", rt.healthHandler.Live)
	rt.mux.HandleFunc("GET /readyz", rt.healthHandler.Ready)
	if rt.metricsHandler != nil {
		rt.mux.Handle("GET /metrics", rt.metricsHandler)
	}

	// Page
	rt.mux.HandleFunc("GET /", rt.galleryPageHandler.ShowGallery)

	// WebSocket
	rt.mux.HandleFunc("GET /ws", rt.websocketHandler.HandleConnection)

	// Read API
	api := rt.galleryAPIHandler
	rt.mux.HandleFunc("GET /api/v1/gallery", api.GetGallery)
	rt.mux.HandleFunc("GET /api/v1/images/{index}/content", api.GetImageContent)

	// Mutating API под rate limit
	limited := rt.limit
	rt.mux.Handle("POST /api/v1/images", limited(api.UploadImages))
	rt.mux.Handle("DELETE /api/v1/images/{index}", limited(api.DeleteImage))
	rt.mux.Handle("POST /api/v1/images/{index}/rotate", limited(api.RotateImage))
	rt.mux.Handle("POST /api/v1/images/{index}/preview", limited(api.OpenPreview))
	rt.mux.HandleFunc("DELETE /api/v1/preview", api.ClosePreview)
	rt.mux.HandleFunc("DELETE /api/v1/notification", api.DismissNotification)

	// Применяем middleware (последний добавленный выполняется первым)
	var failures middleware.FailureCounter
	if rt.observability != nil {
		failures = rt.observability
	}

	var handler http.Handler = rt.mux
	handler = middleware.Auth(middleware.AuthConfig{
		Enabled:     rt.security.AuthEnabled,
		BearerToken: rt.security.AuthToken,
	}, failures, rt.logger)(handler)
	handler = middleware.Compression(handler)
	handler = middleware.Logger(rt.logger)(handler)
	if rt.observability != nil {
		handler = rt.observability.Middleware(handler)
	}
	handler = middleware.Recovery(rt.logger)(handler)

	return handler
}

func (rt *Router) limit(h http.HandlerFunc) http.Handler {
	if rt.rateLimiter == nil {
		return h
	}
	var drops middleware.DropCounter
	if rt.observability != nil {
		drops = rt.observability
	}
	return middleware.RateLimit(rt.rateLimiter, drops)(h)
}
