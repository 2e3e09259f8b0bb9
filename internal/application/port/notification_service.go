package port

import "github.com/AlirezaQolamian-dev/img-uploader/internal/application/dto"

// NotificationService определяет интерфейс для push-уведомлений клиентам (Port)
// Реализация в Infrastructure слое (WebSocket Hub)
type NotificationService interface {
	// BroadcastNotification отправляет текущее уведомление; nil означает "скрыть"
	BroadcastNotification(notification *dto.NotificationDTO)

	// BroadcastGallery отправляет актуальное состояние галереи
	BroadcastGallery(gallery *dto.GalleryDTO)

	// ClientCount возвращает количество подключенных клиентов
	ClientCount() int
}
