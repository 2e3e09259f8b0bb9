package dto

import (
	"fmt"
	"time"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/entity"
)

// ImageDTO представляет элемент галереи для передачи между слоями.
// Байты изображения не включаются: клиент загружает их по ContentURL.
type ImageDTO struct {
	Index      int       `json:"index"`
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	HasPayload bool      `json:"has_payload"`
	ContentURL string    `json:"content_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromAsset конвертирует Domain Entity в DTO
func FromAsset(index int, asset *entity.ImageAsset) *ImageDTO {
	dto := &ImageDTO{
		Index:      index,
		ID:         asset.ID(),
		Name:       asset.Name(),
		MimeType:   asset.MimeType().String(),
		SizeBytes:  asset.SizeBytes(),
		HasPayload: asset.HasPayload(),
		CreatedAt:  asset.CreatedAt(),
	}
	if dto.HasPayload {
		dto.ContentURL = fmt.Sprintf("/api/v1/images/%d/content", index)
	}
	return dto
}

// ToImageDTOs конвертирует слайс Entity в слайс DTO, индекс = позиция
func ToImageDTOs(assets []*entity.ImageAsset) []*ImageDTO {
	dtos := make([]*ImageDTO, len(assets))
	for i, a := range assets {
		dtos[i] = FromAsset(i, a)
	}
	return dtos
}

// ImageContentDTO is the raw payload served to clients.
type ImageContentDTO struct {
	Name     string
	MimeType string
	Payload  []byte
}
