package usecase

import (
	"time"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/dto"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/state"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/apperr"
)

// GetGalleryUseCase собирает состояние галереи для presentation слоя
type GetGalleryUseCase struct {
	store         *CollectionStore
	errors        *state.ErrorSlot
	notifications *state.NotificationSlot
	preview       *state.PreviewSlot
	notifier      port.NotificationService
}

// NewGetGalleryUseCase создает новый use case; notifier может быть nil
func NewGetGalleryUseCase(
	store *CollectionStore,
	errors *state.ErrorSlot,
	notifications *state.NotificationSlot,
	preview *state.PreviewSlot,
	notifier port.NotificationService,
) *GetGalleryUseCase {
	return &GetGalleryUseCase{
		store:         store,
		errors:        errors,
		notifications: notifications,
		preview:       preview,
		notifier:      notifier,
	}
}

// Execute возвращает текущее состояние
func (uc *GetGalleryUseCase) Execute() *dto.GalleryDTO {
	assets := uc.store.List()
	gallery := &dto.GalleryDTO{
		Timestamp: time.Now().UTC(),
		Images:    dto.ToImageDTOs(assets),
		Count:     len(assets),
		Capacity:  uc.store.Capacity(),
		Remaining: uc.store.Capacity() - len(assets),
		Errors:    uc.errors.Snapshot(),
	}

	if n, ok := uc.notifications.Current(); ok {
		gallery.Notification = n.ToDTO()
	}
	if p, ok := uc.preview.Current(); ok {
		gallery.Preview = p.ToDTO()
		// data URL не дублируем в общем состоянии, только в ответе preview
		gallery.Preview.DataURL = ""
	}

	return gallery
}

// Content returns the raw payload of the image at index.
func (uc *GetGalleryUseCase) Content(index int) (*dto.ImageContentDTO, error) {
	asset, err := uc.store.Get(index)
	if err != nil {
		return nil, err
	}
	if !asset.HasPayload() {
		return nil, &apperr.TransformError{Stage: apperr.StageUnavailable, Err: apperr.ErrPayloadUnavailable}
	}
	return &dto.ImageContentDTO{
		Name:     asset.Name(),
		MimeType: asset.MimeType().String(),
		Payload:  asset.Payload(),
	}, nil
}

// Broadcast pushes the current state to connected clients.
func (uc *GetGalleryUseCase) Broadcast() {
	if uc == nil || uc.notifier == nil {
		return
	}
	uc.notifier.BroadcastGallery(uc.Execute())
}
