package dto

import "time"

// NotificationDTO is the transient message slot as seen by a client.
type NotificationDTO struct {
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	EmittedAt time.Time `json:"emitted_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PreviewDTO описывает открытый полноразмерный просмотр
type PreviewDTO struct {
	Index    int    `json:"index"`
	AssetID  string `json:"asset_id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	DataURL  string `json:"data_url,omitempty"`
}

// AdmissionErrorsDTO keeps the two diagnostics in separate fields; Message is
// the single line a one-slot presentation shows (format wins).
type AdmissionErrorsDTO struct {
	Format   string `json:"format,omitempty"`
	Capacity string `json:"capacity,omitempty"`
	Message  string `json:"message,omitempty"`
}

// IsEmpty reports whether no diagnostic is set.
func (e AdmissionErrorsDTO) IsEmpty() bool {
	return e.Format == "" && e.Capacity == ""
}

// GalleryDTO is the full presentation state. Used by the JSON API, the page
// and the websocket "collection" push.
type GalleryDTO struct {
	Timestamp    time.Time          `json:"timestamp"`
	Images       []*ImageDTO        `json:"images"`
	Count        int                `json:"count"`
	Capacity     int                `json:"capacity"`
	Remaining    int                `json:"remaining"`
	Errors       AdmissionErrorsDTO `json:"errors"`
	Notification *NotificationDTO   `json:"notification,omitempty"`
	Preview      *PreviewDTO        `json:"preview,omitempty"`
}

// AddImagesResultDTO is returned from an upload.
type AddImagesResultDTO struct {
	Admitted []*ImageDTO        `json:"admitted"`
	Rejected []string           `json:"rejected,omitempty"`
	Accepted bool               `json:"accepted"`
	Errors   AdmissionErrorsDTO `json:"errors"`
	Message  string             `json:"message,omitempty"`
}
