package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/valueobject"
	"github.com/google/uuid"
)

// ImageAsset представляет изображение галереи. Иммутабелен: поворот создает
// новый asset, который заменяет старый на той же позиции.
type ImageAsset struct {
	id        string
	name      string
	mimeType  valueobject.MimeType
	payload   []byte
	sizeBytes int64
	createdAt time.Time
}

// NewImageAsset создает asset из принятого файла (Factory Method).
// Размер всегда равен длине payload.
func NewImageAsset(name string, mimeType valueobject.MimeType, payload []byte) (*ImageAsset, error) {
	if err := mimeType.Validate(); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, errors.New("image payload cannot be empty")
	}

	return &ImageAsset{
		id:        uuid.New().String(),
		name:      normalizeName(name),
		mimeType:  mimeType,
		payload:   cloneBytes(payload),
		sizeBytes: int64(len(payload)),
		createdAt: time.Now().UTC(),
	}, nil
}

// Reconstruct восстанавливает asset из snapshot. payload может быть nil, если
// snapshot хранит только метаданные; sizeBytes тогда берется из snapshot.
func Reconstruct(
	id, name string,
	mimeType valueobject.MimeType,
	payload []byte,
	sizeBytes int64,
	createdAt time.Time,
) *ImageAsset {
	if len(payload) > 0 {
		sizeBytes = int64(len(payload))
	}
	return &ImageAsset{
		id:        id,
		name:      name,
		mimeType:  mimeType,
		payload:   cloneBytes(payload),
		sizeBytes: sizeBytes,
		createdAt: createdAt,
	}
}

// WithPayload returns the successor asset produced by a transform: new id,
// same name and mime type, the given payload.
func (a *ImageAsset) WithPayload(payload []byte) (*ImageAsset, error) {
	next, err := NewImageAsset(a.name, a.mimeType, payload)
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (a *ImageAsset) ID() string {
	return a.id
}

func (a *ImageAsset) Name() string {
	return a.name
}

func (a *ImageAsset) MimeType() valueobject.MimeType {
	return a.mimeType
}

// Payload возвращает копию байтов изображения
func (a *ImageAsset) Payload() []byte {
	return cloneBytes(a.payload)
}

// HasPayload is false for assets restored from a metadata-only snapshot.
func (a *ImageAsset) HasPayload() bool {
	return len(a.payload) > 0
}

func (a *ImageAsset) SizeBytes() int64 {
	return a.sizeBytes
}

func (a *ImageAsset) CreatedAt() time.Time {
	return a.createdAt
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "image"
	}
	return name
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
