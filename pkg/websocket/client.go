package websocket

import (
	"io"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = pongTimeout * 9 / 10
	// от клиента приходят только pong и close
	maxInboundBytes = 512
	sendQueueSize   = 256
)

// Client - подписчик живых обновлений заказов. Role и BankID решают, какие события ему придут.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uint64
	Role   string
	BankID *uint64
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uint64, role string, bankID *uint64) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, sendQueueSize),
		UserID: userID,
		Role:   role,
		BankID: bankID,
	}
}

// Receives - подходит ли клиент под рассылку для ролей roles по банку bankID.
// Сотрудники без банка получают события всех банков.
func (c *Client) Receives(roles []string, bankID *uint64) bool {
	if !slices.Contains(roles, c.Role) {
		return false
	}
	if c.BankID == nil || bankID == nil {
		return true
	}
	return *c.BankID == *bankID
}

// Start регистрирует клиента и запускает обе горутины соединения.
// Если хаб уже остановлен, соединение закрывается.
func (c *Client) Start() {
	select {
	case c.Hub.Register <- c:
	case <-c.Hub.done:
		_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		c.Conn.Close()
		return
	}
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump продлевает дедлайн по pong и ждёт разрыва; входящие данные отбрасываются.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxInboundBytes)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, r, err := c.Conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("websocket: подписчик отключился с ошибкой",
					zap.Uint64("userID", c.UserID),
					zap.String("role", c.Role),
					zap.Error(err),
				)
			}
			return
		}
		_, _ = io.Copy(io.Discard, r)
	}
}

// WritePump - единственный писатель в соединение: события из Send и ping по таймеру.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				// хаб снял клиента с учёта
				_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.write(websocket.TextMessage, message); err != nil {
				c.Hub.logger.Debug("websocket: событие не доставлено", zap.Uint64("userID", c.UserID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(kind int, data []byte) error {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(kind, data)
}
