package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/dto"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/state"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/apperr"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/entity"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/valueobject"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

const (
	rotationOK     = "ok"
	rotationFailed = "failed"
	rotationStale  = "stale"

	rotateFailedMessage = "Could not rotate the image."
)

// ImageRotator is the decode/transform/encode step (service.Rotator).
type ImageRotator interface {
	Rotate(ctx context.Context, asset *entity.ImageAsset, direction valueobject.RotationDirection) (*entity.ImageAsset, error)
}

type RotateImageCommand struct {
	Index     int
	Direction string
}

// RotateImageUseCase поворачивает изображение на позиции Index на 90°.
// Повороты одной позиции выполняются строго по очереди, поэтому два
// поворота вправо дают 180°. Коммит сравнивает id: если позицию за это
// время удалили или заменили, результат отбрасывается (ErrStaleAsset).
type RotateImageUseCase struct {
	store         *CollectionStore
	rotator       ImageRotator
	locks         *indexLocks
	maxImageBytes int64
	notifications *state.NotificationSlot
	preview       *state.PreviewSlot
	gallery       galleryBroadcaster
	events        *EventEmitter
	metrics       port.GalleryMetrics
	logger        *logger.Logger
}

func NewRotateImageUseCase(
	store *CollectionStore,
	rotator ImageRotator,
	maxImageBytes int64,
	notifications *state.NotificationSlot,
	preview *state.PreviewSlot,
	gallery galleryBroadcaster,
	events *EventEmitter,
	metrics port.GalleryMetrics,
	logger *logger.Logger,
) *RotateImageUseCase {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &RotateImageUseCase{
		store:         store,
		rotator:       rotator,
		locks:         newIndexLocks(),
		maxImageBytes: maxImageBytes,
		notifications: notifications,
		preview:       preview,
		gallery:       gallery,
		events:        events,
		metrics:       metrics,
		logger:        logger,
	}
}

// Execute выполняет поворот. Decode/encode выполняются вне блокировки коллекции.
func (uc *RotateImageUseCase) Execute(ctx context.Context, cmd RotateImageCommand) (*dto.ImageDTO, error) {
	direction, err := valueobject.ParseRotationDirection(cmd.Direction)
	if err != nil {
		return nil, fmt.Errorf("invalid direction %q: %w", cmd.Direction, err)
	}

	unlock := uc.locks.Lock(cmd.Index)
	defer unlock()

	// 1. Снимок текущего элемента
	asset, err := uc.store.Get(cmd.Index)
	if err != nil {
		return nil, err
	}

	// 2. decode → transform → encode
	rotated, err := uc.rotator.Rotate(ctx, asset, direction)
	if err != nil {
		uc.metrics.ObserveRotation(direction.String(), rotationFailed)
		uc.logger.Error("Failed to rotate image", err, "index", cmd.Index, "id", asset.ID())
		if apperr.IsTransform(err) && !errors.Is(err, context.Canceled) {
			uc.notifications.Emit(rotateFailedMessage, valueobject.SeverityError)
		}
		return nil, err
	}

	if rotated.SizeBytes() > uc.maxImageBytes {
		// Результат поворота не проходит повторную проверку допуска
		uc.logger.Warn("Rotated image exceeds the admission size limit",
			"index", cmd.Index, "size_bytes", rotated.SizeBytes(), "limit", uc.maxImageBytes)
	}

	// 3. Коммит (compare-and-swap по id)
	if _, err := uc.store.ReplaceAt(ctx, cmd.Index, asset.ID(), rotated); err != nil {
		if errors.Is(err, apperr.ErrStaleAsset) || errors.Is(err, apperr.ErrIndexOutOfRange) {
			uc.metrics.ObserveRotation(direction.String(), rotationStale)
			uc.logger.Warn("Rotation result discarded, image changed meanwhile", "index", cmd.Index, "id", asset.ID())
			return nil, apperr.ErrStaleAsset
		}
		return nil, fmt.Errorf("failed to commit rotation: %w", err)
	}

	uc.preview.CloseIf(asset.ID())
	uc.metrics.ObserveRotation(direction.String(), rotationOK)
	uc.notifications.Emit(fmt.Sprintf("Image rotated %s.", direction), valueobject.SeveritySuccess)
	uc.events.Emit(ctx, port.GalleryEvent{
		Type:      port.EventImageRotated,
		AssetIDs:  []string{asset.ID(), rotated.ID()},
		Index:     cmd.Index,
		Count:     1,
		Direction: direction.String(),
	})
	uc.logger.Info("Image rotated", "index", cmd.Index, "direction", direction.String(), "id", rotated.ID())

	broadcast(uc.gallery)
	return dto.FromAsset(cmd.Index, rotated), nil
}
