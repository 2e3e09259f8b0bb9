package usecase

import (
	"context"
	"sync"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/entity"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

// CollectionStore is the single owner of the gallery. All mutations are
// serialized by one mutex, and each one rewrites the snapshot while the lock
// is still held, so snapshots are written in mutation order and a reader
// never observes a committed state that has not been handed to persistence.
// A failed save is logged and kept in LastSaveError; the in-memory state
// stays authoritative.
type CollectionStore struct {
	mu          sync.Mutex
	collection  *entity.Collection
	persistence *SnapshotPersistence
	metrics     port.GalleryMetrics
	logger      *logger.Logger
}

func NewCollectionStore(
	capacity int,
	persistence *SnapshotPersistence,
	metrics port.GalleryMetrics,
	logger *logger.Logger,
) *CollectionStore {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &CollectionStore{
		collection:  entity.NewCollection(capacity),
		persistence: persistence,
		metrics:     metrics,
		logger:      logger,
	}
}

// Load replaces the contents with the persisted snapshot (startup only).
// It never fails; it returns the number of images restored.
func (s *CollectionStore) Load(ctx context.Context) int {
	assets := s.persistence.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if dropped := s.collection.Reset(assets); dropped > 0 {
		s.logger.Warn("Snapshot holds more images than allowed, extra entries dropped",
			"capacity", s.collection.Capacity(), "dropped", dropped)
	}
	s.metrics.SetCollectionSize(s.collection.Len())
	return s.collection.Len()
}

// Insert appends assets in order, all or nothing. It returns the index of
// the first inserted asset.
func (s *CollectionStore) Insert(ctx context.Context, assets ...*entity.ImageAsset) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.collection.Len()
	if err := s.collection.Insert(assets...); err != nil {
		return 0, err
	}
	s.persistLocked(ctx)
	return start, nil
}

// DeleteAt removes the image at index i.
func (s *CollectionStore) DeleteAt(ctx context.Context, i int) (*entity.ImageAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.collection.DeleteAt(i)
	if err != nil {
		return nil, err
	}
	s.persistLocked(ctx)
	return removed, nil
}

// ReplaceAt commits a transform result at index i if the entry there is still
// expectedID (compare-and-swap).
func (s *CollectionStore) ReplaceAt(
	ctx context.Context,
	i int,
	expectedID string,
	replacement *entity.ImageAsset,
) (*entity.ImageAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err := s.collection.ReplaceAt(i, expectedID, replacement)
	if err != nil {
		return nil, err
	}
	s.persistLocked(ctx)
	return previous, nil
}

func (s *CollectionStore) Get(i int) (*entity.ImageAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection.At(i)
}

func (s *CollectionStore) List() []*entity.ImageAsset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection.List()
}

func (s *CollectionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection.Len()
}

func (s *CollectionStore) Capacity() int {
	return s.collection.Capacity()
}

// LastSaveError exposes the outcome of the latest snapshot write.
func (s *CollectionStore) LastSaveError() error {
	return s.persistence.LastSaveError()
}

// persistLocked пишет snapshot под блокировкой; ошибка уже залогирована
func (s *CollectionStore) persistLocked(ctx context.Context) {
	s.metrics.SetCollectionSize(s.collection.Len())
	// Persistence must not be aborted by a client that went away mid-request.
	_ = s.persistence.Save(context.WithoutCancel(ctx), s.collection.List())
}
