package state

import (
	"sync"
	"time"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/dto"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/valueobject"
)

// DefaultNotificationTTL is how long a notification stays visible.
const DefaultNotificationTTL = 3 * time.Second

// Notification is a transient user-facing message.
type Notification struct {
	Message   string
	Severity  valueobject.Severity
	EmittedAt time.Time
	ExpiresAt time.Time
}

// ToDTO конвертирует уведомление в DTO
func (n Notification) ToDTO() *dto.NotificationDTO {
	return &dto.NotificationDTO{
		Message:   n.Message,
		Severity:  n.Severity.String(),
		EmittedAt: n.EmittedAt,
		ExpiresAt: n.ExpiresAt,
	}
}

// NotificationSlot holds at most one notification. A new one supersedes the
// current one and restarts the auto-dismiss timer; there is no queue.
type NotificationSlot struct {
	mu       sync.Mutex
	current  *Notification
	gen      uint64
	timer    *time.Timer
	ttl      time.Duration
	notifier port.NotificationService
}

// NewNotificationSlot создает слот; notifier может быть nil
func NewNotificationSlot(ttl time.Duration, notifier port.NotificationService) *NotificationSlot {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &NotificationSlot{ttl: ttl, notifier: notifier}
}

// Emit replaces the current notification and arms a fresh timer.
func (s *NotificationSlot) Emit(message string, severity valueobject.Severity) Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	n := Notification{
		Message:   message,
		Severity:  severity,
		EmittedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.stopTimerLocked()
	s.gen++
	gen := s.gen
	s.current = &n
	s.timer = time.AfterFunc(s.ttl, func() { s.expire(gen) })

	s.broadcastLocked()
	return n
}

// Dismiss clears the current notification (explicit close).
func (s *NotificationSlot) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.stopTimerLocked()
	s.gen++
	s.current = nil
	s.broadcastLocked()
}

// Current returns the visible notification, if any.
func (s *NotificationSlot) Current() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Notification{}, false
	}
	return *s.current, true
}

// Stop disarms the timer; used on shutdown.
func (s *NotificationSlot) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

// expire clears the slot only if it still shows the notification the timer
// was armed for.
func (s *NotificationSlot) expire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen || s.current == nil {
		return
	}
	s.current = nil
	s.timer = nil
	s.broadcastLocked()
}

func (s *NotificationSlot) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// broadcastLocked шлет состояние слота; Hub.Broadcast* не блокируется
func (s *NotificationSlot) broadcastLocked() {
	if s.notifier == nil {
		return
	}
	if s.current == nil {
		s.notifier.BroadcastNotification(nil)
		return
	}
	s.notifier.BroadcastNotification(s.current.ToDTO())
}
