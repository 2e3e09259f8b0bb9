package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// HealthHandler обслуживает probe endpoints
type HealthHandler struct {
	store  port.SnapshotStore
	logger *logger.Logger
}

func NewHealthHandler(store port.SnapshotStore, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// Live всегда 200, пока процесс отвечает.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready проверяет доступность snapshot store.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Readiness check failed", "error", err.Error())
		http.Error(w, "snapshot store unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
