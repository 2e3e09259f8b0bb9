package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/usecase"
	wsInfra "github.com/AlirezaQolamian-dev/img-uploader/internal/infrastructure/notification/websocket"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

// WebSocketHandler обрабатывает WebSocket connections
type WebSocketHandler struct {
	hub            *wsInfra.Hub
	getGalleryUC   *usecase.GetGalleryUseCase
	logger         *logger.Logger
	allowedOrigins map[string]struct{}
	upgrader       websocket.Upgrader
}

// NewWebSocketHandler создает новый handler. Auth проверяется middleware-ом
// (token в query string, т.к. браузер не шлет Authorization для WebSocket).
func NewWebSocketHandler(
	hub *wsInfra.Hub,
	getGalleryUC *usecase.GetGalleryUseCase,
	allowedOrigins []string,
	logger *logger.Logger,
) *WebSocketHandler {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	handler := &WebSocketHandler{
		hub:            hub,
		getGalleryUC:   getGalleryUC,
		logger:         logger,
		allowedOrigins: originMap,
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     handler.checkOrigin,
	}

	return handler
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return false
	}

	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	normalized := parsed.Scheme + "://" + parsed.Host
	if _, ok := h.allowedOrigins[normalized]; ok {
		return true
	}
	if _, ok := h.allowedOrigins["*"]; ok {
		return true
	}

	return false
}

// HandleConnection обрабатывает новое WebSocket соединение.
// Первое сообщение клиенту всегда полное состояние галереи.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", err, "remote_addr", r.RemoteAddr)
		return
	}

	wsInfra.NewClient(h.hub, conn, h.getGalleryUC.Execute(), h.logger).Serve()
}
