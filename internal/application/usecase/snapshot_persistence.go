package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/apperr"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/entity"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/valueobject"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

const (
	DefaultSnapshotKey     = "uploadedImages"
	DefaultPersistTimeout  = 5 * time.Second
	snapshotFormatVersion  = 1
	persistOutcomeOK       = "ok"
	persistOutcomeError    = "error"
	persistOutcomeNotFound = "not_found"
	persistOutcomeCorrupt  = "corrupt"
)

// snapshotDocument is the serialized gallery stored under the snapshot key.
type snapshotDocument struct {
	Version int             `json:"version"`
	Assets  []snapshotAsset `json:"assets"`
}

type snapshotAsset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	// Payload is base64 (encoding/json []byte); empty in metadata-only mode.
	Payload []byte `json:"payload,omitempty"`
}

type SnapshotPersistenceConfig struct {
	Key string
	// PersistPayloads=false stores metadata only; reloaded assets have no bytes.
	PersistPayloads bool
	Timeout         time.Duration
}

// SnapshotPersistence переводит коллекцию в snapshot и обратно (Persistence Adapter).
// Load никогда не возвращает ошибку: отсутствующий или поврежденный snapshot
// означает пустую галерею.
type SnapshotPersistence struct {
	store   port.SnapshotStore
	config  SnapshotPersistenceConfig
	metrics port.GalleryMetrics
	logger  *logger.Logger

	mu      sync.Mutex
	lastErr error
}

func NewSnapshotPersistence(
	store port.SnapshotStore,
	config SnapshotPersistenceConfig,
	metrics port.GalleryMetrics,
	logger *logger.Logger,
) *SnapshotPersistence {
	if config.Key == "" {
		config.Key = DefaultSnapshotKey
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultPersistTimeout
	}
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &SnapshotPersistence{
		store:   store,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

func (p *SnapshotPersistence) Key() string {
	return p.config.Key
}

// Load reads and decodes the snapshot. Entries that cannot be restored are
// skipped; any failure of the slot itself yields an empty list.
func (p *SnapshotPersistence) Load(ctx context.Context) []*entity.ImageAsset {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	raw, err := p.store.Load(ctx, p.config.Key)
	if errors.Is(err, port.ErrSnapshotNotFound) {
		p.metrics.ObservePersistence(string(apperr.OpLoad), persistOutcomeNotFound)
		p.logger.Info("No gallery snapshot found, starting empty", "key", p.config.Key)
		return nil
	}
	if err != nil {
		p.metrics.ObservePersistence(string(apperr.OpLoad), persistOutcomeError)
		p.logger.Error("Failed to load gallery snapshot, starting empty",
			&apperr.PersistenceError{Op: apperr.OpLoad, Key: p.config.Key, Err: err})
		return nil
	}

	assets, err := p.decode(raw)
	if err != nil {
		p.metrics.ObservePersistence(string(apperr.OpLoad), persistOutcomeCorrupt)
		p.logger.Warn("Gallery snapshot is malformed, starting empty", "key", p.config.Key, "error", err.Error())
		return nil
	}

	p.metrics.ObservePersistence(string(apperr.OpLoad), persistOutcomeOK)
	p.logger.Info("Gallery snapshot loaded", "key", p.config.Key, "count", len(assets))
	return assets
}

// Save rewrites the whole snapshot. The error is returned for callers that
// care and is also kept as LastSaveError; the store never rolls back on it.
func (p *SnapshotPersistence) Save(ctx context.Context, assets []*entity.ImageAsset) error {
	data, err := p.encode(assets)
	if err == nil {
		ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
		err = p.store.Save(ctx, p.config.Key, data)
		cancel()
	}

	if err != nil {
		persistErr := &apperr.PersistenceError{Op: apperr.OpSave, Key: p.config.Key, Err: err}
		p.setLastErr(persistErr)
		p.metrics.ObservePersistence(string(apperr.OpSave), persistOutcomeError)
		p.logger.Error("Failed to save gallery snapshot", persistErr, "count", len(assets))
		return persistErr
	}

	p.setLastErr(nil)
	p.metrics.ObservePersistence(string(apperr.OpSave), persistOutcomeOK)
	p.logger.Debug("Gallery snapshot saved", "key", p.config.Key, "count", len(assets), "bytes", len(data))
	return nil
}

// LastSaveError returns the error of the most recent Save, nil if it succeeded.
func (p *SnapshotPersistence) LastSaveError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *SnapshotPersistence) setLastErr(err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
}

func (p *SnapshotPersistence) encode(assets []*entity.ImageAsset) ([]byte, error) {
	doc := snapshotDocument{
		Version: snapshotFormatVersion,
		Assets:  make([]snapshotAsset, 0, len(assets)),
	}
	for _, asset := range assets {
		entry := snapshotAsset{
			ID:        asset.ID(),
			Name:      asset.Name(),
			MimeType:  asset.MimeType().String(),
			SizeBytes: asset.SizeBytes(),
			CreatedAt: asset.CreatedAt(),
		}
		if p.config.PersistPayloads {
			entry.Payload = asset.Payload()
		}
		doc.Assets = append(doc.Assets, entry)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

func (p *SnapshotPersistence) decode(raw []byte) ([]*entity.ImageAsset, error) {
	var doc snapshotDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if doc.Version != snapshotFormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", doc.Version)
	}

	assets := make([]*entity.ImageAsset, 0, len(doc.Assets))
	for i, entry := range doc.Assets {
		mime := valueobject.ParseMimeType(entry.MimeType)
		if err := mime.Validate(); err != nil {
			p.logger.Warn("Skipping snapshot entry with unsupported type", "position", i, "mime_type", entry.MimeType)
			continue
		}
		if entry.ID == "" {
			p.logger.Warn("Skipping snapshot entry without id", "position", i)
			continue
		}
		assets = append(assets, entity.Reconstruct(
			entry.ID, entry.Name, mime, entry.Payload, entry.SizeBytes, entry.CreatedAt,
		))
	}
	return assets, nil
}
