package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/apperr"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/entity"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/valueobject"
)

const (
	DefaultJPEGQuality = 92
	// DefaultMaxPixels ограничивает размер растра: 500 KiB сжатых байт
	// могут описывать картинку в сотни мегапикселей.
	DefaultMaxPixels int64 = 40_000_000
)

// ErrImageTooLarge is returned when the declared dimensions exceed the pixel cap.
var ErrImageTooLarge = errors.New("image dimensions exceed the pixel limit")

// Rotator поворачивает изображение на 90° (decode → transform → encode).
// Stateless; безопасен для конкурентного использования.
type Rotator struct {
	jpegQuality int
	maxPixels   int64
}

// NewRotator creates a rotator; out-of-range arguments fall back to defaults.
func NewRotator(jpegQuality int, maxPixels int64) *Rotator {
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Rotator{jpegQuality: jpegQuality, maxPixels: maxPixels}
}

// Rotate returns a new asset with the same name and mime type whose pixels
// are turned a quarter in direction; width and height swap.
// The context is checked between stages; a cancelled rotation yields no asset.
func (r *Rotator) Rotate(
	ctx context.Context,
	asset *entity.ImageAsset,
	direction valueobject.RotationDirection,
) (*entity.ImageAsset, error) {
	if err := direction.Validate(); err != nil {
		return nil, err
	}

	src, err := r.Decode(ctx, asset)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, &apperr.TransformError{Stage: apperr.StageTransform, Err: err}
	}
	rotated := RotateQuarter(src, direction)

	if err := ctx.Err(); err != nil {
		return nil, &apperr.TransformError{Stage: apperr.StageEncode, Err: err}
	}
	payload, err := r.Encode(rotated, asset.MimeType())
	if err != nil {
		return nil, err
	}

	next, err := asset.WithPayload(payload)
	if err != nil {
		return nil, &apperr.TransformError{Stage: apperr.StageEncode, Err: err}
	}
	return next, nil
}

// Decode decodes the asset's payload into a raster. The header is read first
// and images above the pixel cap are refused before any raster is allocated.
func (r *Rotator) Decode(ctx context.Context, asset *entity.ImageAsset) (image.Image, error) {
	if !asset.HasPayload() {
		return nil, &apperr.TransformError{Stage: apperr.StageUnavailable, Err: apperr.ErrPayloadUnavailable}
	}
	if err := ctx.Err(); err != nil {
		return nil, &apperr.TransformError{Stage: apperr.StageDecode, Err: err}
	}

	payload := asset.Payload()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		return nil, &apperr.TransformError{Stage: apperr.StageDecode, Err: err}
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > r.maxPixels {
		return nil, &apperr.TransformError{
			Stage: apperr.StageDecode,
			Err:   fmt.Errorf("%w: %dx%d > %d", ErrImageTooLarge, cfg.Width, cfg.Height, r.maxPixels),
		}
	}

	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, &apperr.TransformError{Stage: apperr.StageDecode, Err: err}
	}
	return img, nil
}

// Encode re-encodes img in the given format.
func (r *Rotator) Encode(img image.Image, mimeType valueobject.MimeType) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch mimeType {
	case valueobject.PNG:
		err = png.Encode(&buf, img)
	case valueobject.JPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.jpegQuality})
	default:
		err = fmt.Errorf("%w: %s", valueobject.ErrUnsupportedMimeType, mimeType)
	}
	if err != nil {
		return nil, &apperr.TransformError{Stage: apperr.StageEncode, Err: err}
	}

	return buf.Bytes(), nil
}

// RotateQuarter draws src onto a target whose width is src's height and whose
// height is src's width: origin moved to the target's center, coordinate
// system turned by ±90°, src drawn centered on the origin. Quarter turns map
// pixel centers onto pixel centers, so nearest-neighbour sampling is exact.
func RotateQuarter(src image.Image, direction valueobject.RotationDirection) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))

	draw.NearestNeighbor.Transform(dst, quarterTurn(b, direction), src, b, draw.Src, nil)
	return dst
}

// quarterTurn builds the source→target affine matrix
// T(h/2, w/2) · R(±90°) · T(-w/2, -h/2) · T(-min) with integer sin/cos, so
// no floating-point error creeps into the coefficients.
func quarterTurn(b image.Rectangle, direction valueobject.RotationDirection) f64.Aff3 {
	w, h := float64(b.Dx()), float64(b.Dy())
	minX, minY := float64(b.Min.X), float64(b.Min.Y)

	// y растет вниз, поэтому +90° — поворот по часовой стрелке на экране
	cos, sin := 0.0, 1.0
	if direction == valueobject.Left {
		sin = -1.0
	}

	// Rotate the source center offset and translate to the target center.
	cx, cy := minX+w/2, minY+h/2
	return f64.Aff3{
		cos, -sin, h/2 - cos*cx + sin*cy,
		sin, cos, w/2 - sin*cx - cos*cy,
	}
}
