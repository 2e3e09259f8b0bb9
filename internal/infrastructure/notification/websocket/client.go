package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/dto"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// Клиент только слушает; входящие кадры нужны лишь для pong и close
	maxMessageSize = 512

	// Снимок галереи может нести data URL превью, поэтому очередь короткая:
	// отстающий клиент отключается hub-ом, а не копит мегабайты.
	sendBuffer = 32
)

// Client is one browser tab subscribed to gallery state.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	send   chan Message
	logger *logger.Logger

	closeOnce sync.Once
}

// NewClient подготавливает подписчика. Текущий снимок галереи кладется в
// очередь первым, до регистрации в hub, поэтому новый клиент не ждет
// следующей мутации и не может получить уведомление раньше состояния.
func NewClient(hub *Hub, conn *websocket.Conn, gallery *dto.GalleryDTO, logger *logger.Logger) *Client {
	c := &Client{
		conn:   conn,
		hub:    hub,
		send:   make(chan Message, sendBuffer),
		logger: logger,
	}
	if gallery != nil {
		c.send <- Message{Type: MessageGallery, Data: gallery}
	}
	return c
}

// Serve registers the client and starts its pumps. If the hub has already
// stopped, the client gets a close frame after its initial snapshot.
func (c *Client) Serve() {
	if !c.hub.Register(c) {
		c.logger.Debug("Hub stopped, closing new subscriber")
	}
	go c.writeLoop()
	go c.readLoop()
}

// readLoop держит соединение живым (pong) и замечает его разрыв
func (c *Client) readLoop() {
	defer func() {
		c.hub.Unregister(c)
		c.closeConn()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// intents приходят только через HTTP API
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket closed unexpectedly", "error", err.Error())
			}
			return
		}
	}
}

// writeLoop единственный writer соединения: gorilla не допускает
// конкурентных записей.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// hub отпустил клиента
				_ = c.write(websocket.CloseMessage, nil)
				return
			}
			if err := c.writeJSON(message); err != nil {
				c.logger.Warn("WebSocket write failed", "type", message.Type, "error", err.Error())
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(frameType int, payload []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(frameType, payload)
}

func (c *Client) writeJSON(message Message) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(message)
}

// closeConn закрывает соединение один раз, какая бы помпа ни завершилась первой
func (c *Client) closeConn() {
	c.closeOnce.Do(func() {
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("WebSocket close error", "error", err.Error())
		}
	})
}
