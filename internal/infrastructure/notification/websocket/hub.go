package websocket

import (
	"context"
	"sync"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/dto"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

// Типы сообщений для клиента
const (
	MessageNotification = "notification"
	MessageGallery      = "collection"
)

// Message представляет сообщение для отправки клиенту
type Message struct {
	Type string      `json:"type"` // "notification" или "collection"
	Data interface{} `json:"data"`
}

// Hub управляет WebSocket клиентами и рассылает состояние галереи
// Реализует интерфейс port.NotificationService
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Канал для broadcast сообщений
	broadcast chan Message

	// Канал для регистрации клиентов
	register chan *Client

	// Канал для удаления клиентов
	unregister chan *Client

	// Закрывается, когда Run завершился; после этого Register/Unregister
	// не блокируются
	done chan struct{}

	// Mutex для защиты clients map
	mu sync.RWMutex

	logger *logger.Logger
}

// NewHub создает новый WebSocket hub
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run запускает hub (должен быть запущен в отдельной goroutine) до отмены ctx
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client registered", "total_clients", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client unregistered", "total_clients", total)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					// Сообщение отправлено
				default:
					// Канал клиента заполнен, отключаем медленного клиента
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("Client channel full, disconnected")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register регистрирует нового клиента. Если hub уже остановлен, канал
// клиента закрывается и возвращается false.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		close(client.send)
		return false
	}
}

// Unregister удаляет клиента; после остановки hub это no-op
// (closeAll уже закрыл каналы всех зарегистрированных клиентов).
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Done закрывается после завершения Run.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// BroadcastNotification отправляет уведомление всем клиентам; nil = скрыть
// (реализация port.NotificationService)
func (h *Hub) BroadcastNotification(notification *dto.NotificationDTO) {
	h.enqueue(Message{Type: MessageNotification, Data: notification})
}

// BroadcastGallery отправляет состояние галереи всем клиентам
// (реализация port.NotificationService)
func (h *Hub) BroadcastGallery(gallery *dto.GalleryDTO) {
	h.enqueue(Message{Type: MessageGallery, Data: gallery})
}

// ClientCount возвращает количество подключенных клиентов (реализация port.NotificationService)
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// enqueue не блокирует вызывающего: мутации галереи не ждут клиентов
func (h *Hub) enqueue(message Message) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Broadcast channel full, dropping message", "type", message.Type)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}
