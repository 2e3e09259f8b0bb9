package state

import (
	"sync"
	"testing"
	"time"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/dto"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/apperr"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/valueobject"
)

type mockNotifier struct {
	mu            sync.Mutex
	notifications []*dto.NotificationDTO
}

func (m *mockNotifier) BroadcastNotification(n *dto.NotificationDTO) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
}

func (m *mockNotifier) BroadcastGallery(*dto.GalleryDTO) {}

func (m *mockNotifier) ClientCount() int { return 0 }

func (m *mockNotifier) last() (*dto.NotificationDTO, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.notifications) == 0 {
		return nil, 0
	}
	return m.notifications[len(m.notifications)-1], len(m.notifications)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestNotificationSlot_AutoDismiss(t *testing.T) {
	notifier := &mockNotifier{}
	slot := NewNotificationSlot(30*time.Millisecond, notifier)
	defer slot.Stop()

	n := slot.Emit("3 images uploaded successfully.", valueobject.SeveritySuccess)
	if n.ExpiresAt.Sub(n.EmittedAt) != 30*time.Millisecond {
		t.Fatalf("unexpected expiry %v", n.ExpiresAt.Sub(n.EmittedAt))
	}
	if got, ok := slot.Current(); !ok || got.Message != n.Message {
		t.Fatalf("expected notification to be visible")
	}

	waitFor(t, func() bool {
		_, ok := slot.Current()
		return !ok
	})

	last, count := notifier.last()
	if count != 2 || last != nil {
		t.Fatalf("expected emit then clear broadcast, got %d calls, last=%v", count, last)
	}
}

func TestNotificationSlot_SupersedeRestartsTimer(t *testing.T) {
	slot := NewNotificationSlot(200*time.Millisecond, nil)
	defer slot.Stop()

	slot.Emit("first", valueobject.SeverityInfo)
	time.Sleep(120 * time.Millisecond)
	slot.Emit("second", valueobject.SeverityError)

	// первый таймер истек бы здесь; второе уведомление должно остаться
	time.Sleep(120 * time.Millisecond)
	got, ok := slot.Current()
	if !ok || got.Message != "second" || got.Severity != valueobject.SeverityError {
		t.Fatalf("expected second notification to remain, got %+v ok=%v", got, ok)
	}

	waitFor(t, func() bool {
		_, ok := slot.Current()
		return !ok
	})
}

func TestNotificationSlot_Dismiss(t *testing.T) {
	notifier := &mockNotifier{}
	slot := NewNotificationSlot(time.Hour, notifier)

	slot.Dismiss()
	if _, count := notifier.last(); count != 0 {
		t.Fatalf("dismissing an empty slot must not broadcast")
	}

	slot.Emit("Image deleted successfully.", valueobject.SeverityInfo)
	slot.Dismiss()
	if _, ok := slot.Current(); ok {
		t.Fatalf("expected slot to be empty")
	}
	if last, count := notifier.last(); count != 2 || last != nil {
		t.Fatalf("expected clear broadcast, got %d calls", count)
	}
}

func TestPreviewSlot(t *testing.T) {
	slot := NewPreviewSlot()
	if _, ok := slot.Current(); ok {
		t.Fatalf("expected no preview")
	}

	slot.Open(Preview{Index: 0, AssetID: "a"})
	slot.Open(Preview{Index: 1, AssetID: "b"})
	got, ok := slot.Current()
	if !ok || got.AssetID != "b" {
		t.Fatalf("expected superseding preview, got %+v", got)
	}

	if slot.CloseIf("a") {
		t.Fatalf("CloseIf must ignore other assets")
	}
	if !slot.CloseIf("b") {
		t.Fatalf("CloseIf must close the shown asset")
	}

	slot.Open(Preview{AssetID: "c"})
	slot.Close()
	if _, ok := slot.Current(); ok {
		t.Fatalf("expected preview to be closed")
	}
}

func TestPreviewSlot_Removed(t *testing.T) {
	tests := []struct {
		name       string
		removedIdx int
		removedID  string
		wantOpen   bool
		wantIndex  int
	}{
		{name: "earlier entry shifts preview", removedIdx: 0, removedID: "x", wantOpen: true, wantIndex: 1},
		{name: "later entry keeps position", removedIdx: 3, removedID: "y", wantOpen: true, wantIndex: 2},
		{name: "shown entry closes preview", removedIdx: 2, removedID: "c", wantOpen: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			slot := NewPreviewSlot()
			slot.Open(Preview{Index: 2, AssetID: "c"})

			closed := slot.Removed(tc.removedIdx, tc.removedID)
			got, ok := slot.Current()
			if ok != tc.wantOpen || closed == tc.wantOpen {
				t.Fatalf("open = %v, closed = %v, want open %v", ok, closed, tc.wantOpen)
			}
			if ok && (got.Index != tc.wantIndex || got.AssetID != "c") {
				t.Fatalf("unexpected preview %+v, want index %d", got, tc.wantIndex)
			}
		})
	}

	if NewPreviewSlot().Removed(0, "a") {
		t.Fatalf("empty slot must not report a close")
	}
}

func TestErrorSlot_LastRaisedWins(t *testing.T) {
	slot := NewErrorSlot()
	slot.Raise(&apperr.AdmissionError{Kind: apperr.AdmissionCapacity, Message: "cap"})
	slot.Raise(&apperr.AdmissionError{Kind: apperr.AdmissionFormat, Message: "fmt"})

	got := slot.Snapshot()
	if got.Capacity != "cap" || got.Format != "fmt" || got.Message != "fmt" {
		t.Fatalf("unexpected snapshot %+v", got)
	}

	slot.Clear()
	if !slot.Snapshot().IsEmpty() {
		t.Fatalf("expected empty slot after Clear")
	}
}
