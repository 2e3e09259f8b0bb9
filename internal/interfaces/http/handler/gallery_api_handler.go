package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/usecase"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/apperr"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/service"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/valueobject"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/interfaces/http/middleware"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

// Поля multipart формы, из которых берутся файлы
var uploadFieldNames = map[string]struct{}{
	"files": {},
	"file":  {},
}

// GalleryAPIHandler обрабатывает JSON API галереи
type GalleryAPIHandler struct {
	getGalleryUC   *usecase.GetGalleryUseCase
	addImagesUC    *usecase.AddImagesUseCase
	rotateImageUC  *usecase.RotateImageUseCase
	deleteImageUC  *usecase.DeleteImageUseCase
	previewImageUC *usecase.PreviewImageUseCase
	dismissNotice  func()
	uploadMaxBytes int64
	maxImageBytes  int64
	logger         *logger.Logger
}

type GalleryAPIConfig struct {
	// UploadMaxBytes caps the whole multipart request body
	UploadMaxBytes int64
	// MaxImageBytes is the per-file admission limit; a file part is read at
	// most one byte past it
	MaxImageBytes int64
}

func NewGalleryAPIHandler(
	getGalleryUC *usecase.GetGalleryUseCase,
	addImagesUC *usecase.AddImagesUseCase,
	rotateImageUC *usecase.RotateImageUseCase,
	deleteImageUC *usecase.DeleteImageUseCase,
	previewImageUC *usecase.PreviewImageUseCase,
	dismissNotice func(),
	cfg GalleryAPIConfig,
	log *logger.Logger,
) *GalleryAPIHandler {
	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = 8 * 1024 * 1024
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = service.DefaultMaxImageBytes
	}

	return &GalleryAPIHandler{
		getGalleryUC:   getGalleryUC,
		addImagesUC:    addImagesUC,
		rotateImageUC:  rotateImageUC,
		deleteImageUC:  deleteImageUC,
		previewImageUC: previewImageUC,
		dismissNotice:  dismissNotice,
		uploadMaxBytes: cfg.UploadMaxBytes,
		maxImageBytes:  cfg.MaxImageBytes,
		logger:         log,
	}
}

// GetGallery возвращает текущее состояние галереи
func (h *GalleryAPIHandler) GetGallery(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.getGalleryUC.Execute())
}

// UploadImages принимает пакет файлов (multipart/form-data, поле "files").
// Отклонения по формату или емкости не являются ошибкой HTTP: они приходят
// в теле ответа.
func (h *GalleryAPIHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes)
	defer r.Body.Close()

	candidates, err := h.readCandidates(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		h.logger.Warn("Invalid upload request", "error", err.Error(), "remote_addr", r.RemoteAddr)
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}

	result, err := h.addImagesUC.Execute(r.Context(), usecase.AddImagesCommand{Candidates: candidates})
	if err != nil {
		h.writeError(w, err, "Failed to add images")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// readCandidates streams the multipart body part by part. A file part is
// read at most maxImageBytes+1 bytes, enough to know it is over the limit.
func (h *GalleryAPIHandler) readCandidates(r *http.Request) ([]service.Candidate, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}

	var candidates []service.Candidate
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return candidates, nil
		}
		if err != nil {
			return nil, err
		}

		if _, ok := uploadFieldNames[part.FormName()]; !ok || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		payload, err := io.ReadAll(io.LimitReader(part, h.maxImageBytes+1))
		_ = part.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", part.FileName(), err)
		}

		candidates = append(candidates, service.Candidate{
			Name:     part.FileName(),
			MimeType: part.Header.Get("Content-Type"),
			Size:     int64(len(payload)),
			Payload:  payload,
		})
	}
}

// GetImageContent отдает исходные байты изображения с его mime type
func (h *GalleryAPIHandler) GetImageContent(w http.ResponseWriter, r *http.Request) {
	index, ok := h.parseIndex(w, r)
	if !ok {
		return
	}

	content, err := h.getGalleryUC.Content(index)
	if err != nil {
		h.writeError(w, err, "Failed to load image")
		return
	}

	w.Header().Set("Content-Type", content.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(content.Payload)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", content.Name))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content.Payload)
}

// RotateImage поворачивает изображение: ?direction=left|right
func (h *GalleryAPIHandler) RotateImage(w http.ResponseWriter, r *http.Request) {
	index, ok := h.parseIndex(w, r)
	if !ok {
		return
	}

	direction := r.URL.Query().Get("direction")
	if direction == "" {
		var body struct {
			Direction string `json:"direction"`
		}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(io.LimitReader(r.Body, 1024)).Decode(&body); err != nil {
				middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
		}
		direction = body.Direction
	}

	image, err := h.rotateImageUC.Execute(r.Context(), usecase.RotateImageCommand{
		Index:     index,
		Direction: direction,
	})
	if err != nil {
		h.writeError(w, err, "Failed to rotate image")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, image)
}

// DeleteImage удаляет изображение по индексу
func (h *GalleryAPIHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	index, ok := h.parseIndex(w, r)
	if !ok {
		return
	}

	image, err := h.deleteImageUC.Execute(r.Context(), index)
	if err != nil {
		h.writeError(w, err, "Failed to delete image")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, image)
}

// OpenPreview открывает полноразмерный просмотр
func (h *GalleryAPIHandler) OpenPreview(w http.ResponseWriter, r *http.Request) {
	index, ok := h.parseIndex(w, r)
	if !ok {
		return
	}

	preview, err := h.previewImageUC.Execute(r.Context(), index)
	if err != nil {
		h.writeError(w, err, "Failed to open preview")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, preview)
}

// ClosePreview закрывает просмотр; идемпотентно
func (h *GalleryAPIHandler) ClosePreview(w http.ResponseWriter, _ *http.Request) {
	h.previewImageUC.Dismiss()
	w.WriteHeader(http.StatusNoContent)
}

// DismissNotification скрывает текущее уведомление; идемпотентно
func (h *GalleryAPIHandler) DismissNotification(w http.ResponseWriter, _ *http.Request) {
	if h.dismissNotice != nil {
		h.dismissNotice()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GalleryAPIHandler) parseIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid image index")
		return 0, false
	}
	return index, true
}

// writeError переводит ошибки use case в HTTP статусы
func (h *GalleryAPIHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	var transformErr *apperr.TransformError

	switch {
	case errors.Is(err, apperr.ErrIndexOutOfRange):
		middleware.WriteError(w, http.StatusNotFound, "Image not found")
	case errors.Is(err, apperr.ErrStaleAsset):
		middleware.WriteError(w, http.StatusConflict, "Image changed meanwhile, try again")
	case errors.Is(err, valueobject.ErrInvalidDirection):
		middleware.WriteError(w, http.StatusBadRequest, "Direction must be left or right")
	case errors.Is(err, apperr.ErrPayloadUnavailable):
		middleware.WriteError(w, http.StatusConflict, "Image content is not available")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		middleware.WriteError(w, http.StatusServiceUnavailable, "Request cancelled")
	case errors.As(err, &transformErr):
		middleware.WriteError(w, http.StatusUnprocessableEntity, "Could not process the image")
	default:
		h.logger.Error(fallback, err)
		middleware.WriteError(w, http.StatusInternalServerError, fallback)
	}
}
