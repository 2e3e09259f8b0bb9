package usecase

import (
	"context"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/dto"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/state"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/valueobject"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

const deletedMessage = "Image deleted successfully."

// DeleteImageUseCase удаляет изображение по позиции
type DeleteImageUseCase struct {
	store         *CollectionStore
	notifications *state.NotificationSlot
	preview       *state.PreviewSlot
	gallery       galleryBroadcaster
	events        *EventEmitter
	logger        *logger.Logger
}

func NewDeleteImageUseCase(
	store *CollectionStore,
	notifications *state.NotificationSlot,
	preview *state.PreviewSlot,
	gallery galleryBroadcaster,
	events *EventEmitter,
	logger *logger.Logger,
) *DeleteImageUseCase {
	return &DeleteImageUseCase{
		store:         store,
		notifications: notifications,
		preview:       preview,
		gallery:       gallery,
		events:        events,
		logger:        logger,
	}
}

// Execute удаляет элемент index; остальные сохраняют относительный порядок
func (uc *DeleteImageUseCase) Execute(ctx context.Context, index int) (*dto.ImageDTO, error) {
	removed, err := uc.store.DeleteAt(ctx, index)
	if err != nil {
		return nil, err
	}

	uc.preview.Removed(index, removed.ID())
	uc.notifications.Emit(deletedMessage, valueobject.SeverityInfo)
	uc.events.Emit(ctx, port.GalleryEvent{
		Type:     port.EventImageDeleted,
		AssetIDs: []string{removed.ID()},
		Index:    index,
		Count:    1,
	})
	uc.logger.Info("Image deleted", "index", index, "id", removed.ID())

	broadcast(uc.gallery)
	return dto.FromAsset(index, removed), nil
}
