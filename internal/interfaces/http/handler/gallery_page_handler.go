package handler

import (
	"net/http"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/usecase"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/interfaces/view"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

// GalleryPageHandler отдает HTML страницу галереи
type GalleryPageHandler struct {
	getGalleryUC *usecase.GetGalleryUseCase
	logger       *logger.Logger
}

func NewGalleryPageHandler(getGalleryUC *usecase.GetGalleryUseCase, logger *logger.Logger) *GalleryPageHandler {
	return &GalleryPageHandler{
		getGalleryUC: getGalleryUC,
		logger:       logger,
	}
}

// ShowGallery отображает главную страницу
func (h *GalleryPageHandler) ShowGallery(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	gallery := h.getGalleryUC.Execute()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// Рендерим Templ компонент
	if err := view.Gallery(gallery).Render(r.Context(), w); err != nil {
		h.logger.Error("Failed to render gallery", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}
