package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/dto"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/state"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/apperr"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/entity"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

// PreviewImageUseCase открывает и закрывает полноразмерный просмотр
type PreviewImageUseCase struct {
	store   *CollectionStore
	preview *state.PreviewSlot
	gallery galleryBroadcaster
	logger  *logger.Logger
}

func NewPreviewImageUseCase(
	store *CollectionStore,
	preview *state.PreviewSlot,
	gallery galleryBroadcaster,
	logger *logger.Logger,
) *PreviewImageUseCase {
	return &PreviewImageUseCase{
		store:   store,
		preview: preview,
		gallery: gallery,
		logger:  logger,
	}
}

// Execute opens the image at index in the preview slot, superseding any
// open preview. The payload is probed for its dimensions.
func (uc *PreviewImageUseCase) Execute(ctx context.Context, index int) (*dto.PreviewDTO, error) {
	asset, err := uc.store.Get(index)
	if err != nil {
		return nil, err
	}
	if !asset.HasPayload() {
		return nil, &apperr.TransformError{Stage: apperr.StageUnavailable, Err: apperr.ErrPayloadUnavailable}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(asset.Payload()))
	if err != nil {
		uc.logger.Warn("Failed to read image header for preview", "index", index, "id", asset.ID(), "error", err.Error())
		return nil, &apperr.TransformError{Stage: apperr.StageDecode, Err: err}
	}

	p := state.Preview{
		Index:    index,
		AssetID:  asset.ID(),
		Name:     asset.Name(),
		MimeType: asset.MimeType().String(),
		Width:    cfg.Width,
		Height:   cfg.Height,
		DataURL:  dataURL(asset),
	}
	uc.preview.Open(p)
	uc.logger.Debug("Preview opened", "index", index, "id", asset.ID())

	broadcast(uc.gallery)
	return p.ToDTO(), nil
}

// Dismiss closes the preview.
func (uc *PreviewImageUseCase) Dismiss() {
	uc.preview.Close()
	broadcast(uc.gallery)
}

func dataURL(asset *entity.ImageAsset) string {
	return "data:" + asset.MimeType().String() + ";base64," + base64.StdEncoding.EncodeToString(asset.Payload())
}
