package usecase

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/dto"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/state"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/service"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

type mockSnapshotStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	saves    int
	saveErr  error
	loadErr  error
	saveHook func()
}

func newMockSnapshotStore() *mockSnapshotStore {
	return &mockSnapshotStore{data: make(map[string][]byte)}
}

func (m *mockSnapshotStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	data, ok := m.data[key]
	if !ok {
		return nil, port.ErrSnapshotNotFound
	}
	return data, nil
}

func (m *mockSnapshotStore) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveHook != nil {
		m.saveHook()
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *mockSnapshotStore) Ping(context.Context) error { return nil }
func (m *mockSnapshotStore) Close() error              { return nil }

func (m *mockSnapshotStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

type mockNotifier struct {
	mu            sync.Mutex
	galleries     []*dto.GalleryDTO
	notifications []*dto.NotificationDTO
}

func (m *mockNotifier) BroadcastNotification(n *dto.NotificationDTO) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
}

func (m *mockNotifier) BroadcastGallery(g *dto.GalleryDTO) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.galleries = append(m.galleries, g)
}

func (m *mockNotifier) ClientCount() int { return 1 }

type publishedEvent struct {
	subject string
	event   port.GalleryEvent
}

type mockEventPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (m *mockEventPublisher) PublishEvent(_ context.Context, subject string, event interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, publishedEvent{subject: subject, event: event.(port.GalleryEvent)})
	return nil
}

func (m *mockEventPublisher) Close() error { return nil }

// fixture собирает граф use case'ов так же, как cmd/img-uploader
type fixture struct {
	snapshots     *mockSnapshotStore
	notifier      *mockNotifier
	events        *mockEventPublisher
	persistence   *SnapshotPersistence
	store         *CollectionStore
	errors        *state.ErrorSlot
	notifications *state.NotificationSlot
	preview       *state.PreviewSlot
	gallery       *GetGalleryUseCase
	add           *AddImagesUseCase
	rotate        *RotateImageUseCase
	remove        *DeleteImageUseCase
	open          *PreviewImageUseCase
}

func newFixture(t *testing.T, snapshots *mockSnapshotStore, persistPayloads bool) *fixture {
	t.Helper()
	log := logger.New("error")

	f := &fixture{
		snapshots: snapshots,
		notifier:  &mockNotifier{},
		events:    &mockEventPublisher{},
	}
	f.persistence = NewSnapshotPersistence(snapshots, SnapshotPersistenceConfig{
		Key:             DefaultSnapshotKey,
		PersistPayloads: persistPayloads,
		Timeout:         time.Second,
	}, nil, log)
	f.store = NewCollectionStore(5, f.persistence, nil, log)
	f.store.Load(context.Background())

	f.errors = state.NewErrorSlot()
	f.notifications = state.NewNotificationSlot(time.Hour, f.notifier)
	t.Cleanup(f.notifications.Stop)
	f.preview = state.NewPreviewSlot()
	f.gallery = NewGetGalleryUseCase(f.store, f.errors, f.notifications, f.preview, f.notifier)
	emitter := NewEventEmitter(f.events, "gallery", log)

	policy := service.NewAdmissionPolicy(service.AdmissionConfig{})
	f.add = NewAddImagesUseCase(f.store, policy, f.errors, f.notifications, f.gallery, emitter, nil, log)
	f.rotate = NewRotateImageUseCase(f.store, service.NewRotator(0, 0), service.DefaultMaxImageBytes,
		f.notifications, f.preview, f.gallery, emitter, nil, log)
	f.remove = NewDeleteImageUseCase(f.store, f.notifications, f.preview, f.gallery, emitter, log)
	f.open = NewPreviewImageUseCase(f.store, f.preview, f.gallery, log)
	return f
}

func (f *fixture) names() []string {
	var out []string
	for _, a := range f.store.List() {
		out = append(out, a.Name())
	}
	return out
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func pngCandidate(t *testing.T, name string, w, h int) service.Candidate {
	return service.Candidate{Name: name, MimeType: "image/png", Payload: pngBytes(t, w, h)}
}

func imageSize(t *testing.T, payload []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}
	return cfg.Width, cfg.Height
}
