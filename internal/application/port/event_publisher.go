package port

import (
	"context"
	"time"
)

// Event types; the subject is "<prefix>.<type>".
const (
	EventImageAdded   = "image.added"
	EventImageRotated = "image.rotated"
	EventImageDeleted = "image.deleted"
)

// GalleryEvent is published after a mutation has been committed.
type GalleryEvent struct {
	Type       string    `json:"type"`
	AssetIDs   []string  `json:"asset_ids"`
	Index      int       `json:"index"`
	Count      int       `json:"count"`
	Direction  string    `json:"direction,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message broker
type EventPublisher interface {
	// PublishEvent publishes an event to the specified subject
	PublishEvent(ctx context.Context, subject string, event interface{}) error

	// Close closes the connection to the message broker
	Close() error
}
