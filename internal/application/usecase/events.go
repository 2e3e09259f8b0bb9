package usecase

import (
	"context"
	"time"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

// EventEmitter publishes gallery events after a commit. Publishing is best
// effort: failures are logged and never fail the intent. A nil publisher
// disables events.
type EventEmitter struct {
	publisher port.EventPublisher
	prefix    string
	logger    *logger.Logger
}

func NewEventEmitter(publisher port.EventPublisher, prefix string, logger *logger.Logger) *EventEmitter {
	if prefix == "" {
		prefix = "gallery"
	}
	return &EventEmitter{publisher: publisher, prefix: prefix, logger: logger}
}

// Subject returns the full subject for an event type.
func (e *EventEmitter) Subject(eventType string) string {
	return e.prefix + "." + eventType
}

func (e *EventEmitter) Emit(ctx context.Context, event port.GalleryEvent) {
	if e == nil || e.publisher == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	subject := e.Subject(event.Type)
	if err := e.publisher.PublishEvent(ctx, subject, event); err != nil {
		e.logger.Warn("Failed to publish gallery event", "subject", subject, "error", err.Error())
	}
}
