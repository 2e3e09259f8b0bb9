package state

import (
	"sync"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/dto"
)

// Preview is the image currently open in full-size view.
type Preview struct {
	Index    int
	AssetID  string
	Name     string
	MimeType string
	Width    int
	Height   int
	DataURL  string
}

func (p Preview) ToDTO() *dto.PreviewDTO {
	return &dto.PreviewDTO{
		Index:    p.Index,
		AssetID:  p.AssetID,
		Name:     p.Name,
		MimeType: p.MimeType,
		Width:    p.Width,
		Height:   p.Height,
		DataURL:  p.DataURL,
	}
}

// PreviewSlot хранит не более одного открытого просмотра
type PreviewSlot struct {
	mu      sync.RWMutex
	current *Preview
}

func NewPreviewSlot() *PreviewSlot {
	return &PreviewSlot{}
}

// Open sets p as the preview, superseding any other.
func (s *PreviewSlot) Open(p Preview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &p
}

func (s *PreviewSlot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// CloseIf closes the preview only when it shows assetID. Used when that
// asset leaves the collection.
func (s *PreviewSlot) CloseIf(assetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.AssetID != assetID {
		return false
	}
	s.current = nil
	return true
}

// Removed keeps the preview consistent after the entry at index (holding
// assetID) left the collection: the preview of that asset closes, a preview
// of a later entry moves down one position. Reports whether it closed.
func (s *PreviewSlot) Removed(index int, assetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return false
	}
	if s.current.AssetID == assetID {
		s.current = nil
		return true
	}
	if s.current.Index > index {
		s.current.Index--
	}
	return false
}

func (s *PreviewSlot) Current() (Preview, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Preview{}, false
	}
	return *s.current, true
}
