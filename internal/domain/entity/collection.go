package entity

import (
	"fmt"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/apperr"
)

// DefaultCapacity is the maximum number of images a gallery holds.
const DefaultCapacity = 5

// Collection упорядоченный набор изображений (Aggregate Root).
// Порядок вставки определяет порядок отображения и индексы операций.
// Collection не синхронизирована; владелец (CollectionStore) сериализует доступ.
type Collection struct {
	capacity int
	assets   []*ImageAsset
}

// NewCollection создает пустую коллекцию с заданной емкостью
func NewCollection(capacity int) *Collection {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Collection{
		capacity: capacity,
		assets:   make([]*ImageAsset, 0, capacity),
	}
}

func (c *Collection) Capacity() int {
	return c.capacity
}

func (c *Collection) Len() int {
	return len(c.assets)
}

// Remaining returns how many more assets fit.
func (c *Collection) Remaining() int {
	return c.capacity - len(c.assets)
}

// Insert appends assets in order. All-or-nothing: if they do not all fit
// nothing is appended.
func (c *Collection) Insert(assets ...*ImageAsset) error {
	if len(c.assets)+len(assets) > c.capacity {
		return &apperr.AdmissionError{
			Kind:    apperr.AdmissionCapacity,
			Message: fmt.Sprintf("You can only upload up to %d images.", c.capacity),
		}
	}
	for _, asset := range assets {
		if asset == nil {
			return fmt.Errorf("cannot insert nil image")
		}
	}
	c.assets = append(c.assets, assets...)
	return nil
}

// DeleteAt удаляет элемент i, сохраняя относительный порядок остальных
func (c *Collection) DeleteAt(i int) (*ImageAsset, error) {
	if i < 0 || i >= len(c.assets) {
		return nil, apperr.ErrIndexOutOfRange
	}
	removed := c.assets[i]
	next := make([]*ImageAsset, 0, c.capacity)
	next = append(next, c.assets[:i]...)
	next = append(next, c.assets[i+1:]...)
	c.assets = next
	return removed, nil
}

// ReplaceAt swaps the asset at i for replacement, provided the current
// occupant still has expectedID. An empty expectedID skips the check.
func (c *Collection) ReplaceAt(i int, expectedID string, replacement *ImageAsset) (*ImageAsset, error) {
	if i < 0 || i >= len(c.assets) {
		return nil, apperr.ErrIndexOutOfRange
	}
	if replacement == nil {
		return nil, fmt.Errorf("cannot replace with nil image")
	}
	previous := c.assets[i]
	if expectedID != "" && previous.ID() != expectedID {
		return nil, apperr.ErrStaleAsset
	}
	c.assets[i] = replacement
	return previous, nil
}

func (c *Collection) At(i int) (*ImageAsset, error) {
	if i < 0 || i >= len(c.assets) {
		return nil, apperr.ErrIndexOutOfRange
	}
	return c.assets[i], nil
}

// List возвращает копию среза (сами assets иммутабельны)
func (c *Collection) List() []*ImageAsset {
	out := make([]*ImageAsset, len(c.assets))
	copy(out, c.assets)
	return out
}

// Reset replaces the contents wholesale, keeping at most capacity entries.
// It returns the number of entries that did not fit.
func (c *Collection) Reset(assets []*ImageAsset) int {
	kept := make([]*ImageAsset, 0, c.capacity)
	dropped := 0
	for _, asset := range assets {
		if asset == nil {
			continue
		}
		if len(kept) == c.capacity {
			dropped++
			continue
		}
		kept = append(kept, asset)
	}
	c.assets = kept
	return dropped
}
