package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub хранит активные соединения и рассылает сообщения.
type Hub struct {
	clients     map[*Client]bool
	userClients map[uint64][]*Client
	Register    chan *Client
	unregister  chan *Client
	done        chan struct{}
	mu          sync.RWMutex
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		userClients: make(map[uint64][]*Client),
		Register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
		logger:      logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.userClients[client.UserID] = append(h.userClients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Debug("websocket: клиент зарегистрирован",
				zap.Uint64("userID", client.UserID), zap.String("role", client.Role))
		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// Unregister снимает клиента с учёта; после остановки хаба ничего не делает.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)

	clients := h.userClients[client.UserID]
	for i, c := range clients {
		if c == client {
			h.userClients[client.UserID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.userClients[client.UserID]) == 0 {
		delete(h.userClients, client.UserID)
	}
	h.logger.Debug("websocket: клиент отсоединён", zap.Uint64("userID", client.UserID))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]bool)
	h.userClients = make(map[uint64][]*Client)
}

func encode(messageType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
}

// SendMessageToUser отправляет сообщение во все соединения пользователя.
func (h *Hub) SendMessageToUser(userID uint64, payload interface{}, messageType string) error {
	messageBytes, err := encode(messageType, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.userClients[userID] {
		h.trySend(client, messageBytes)
	}
	return nil
}

// Broadcast рассылает сообщение клиентам, для которых match вернул true.
// Возвращает число получателей.
func (h *Hub) Broadcast(payload interface{}, messageType string, match func(*Client) bool) (int, error) {
	messageBytes, err := encode(messageType, payload)
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for client := range h.clients {
		if match != nil && !match(client) {
			continue
		}
		if h.trySend(client, messageBytes) {
			sent++
		}
	}
	return sent, nil
}

// SendToRoles - рассылка по ролям; для роли bank можно ограничить банком.
func (h *Hub) SendToRoles(payload interface{}, messageType string, bankID *uint64, roles ...string) (int, error) {
	return h.Broadcast(payload, messageType, func(c *Client) bool {
		return c.Receives(roles, bankID)
	})
}

// trySend не блокирует хаб на медленном клиенте: сообщение отбрасывается.
func (h *Hub) trySend(client *Client, msg []byte) bool {
	select {
	case client.Send <- msg:
		return true
	default:
		h.logger.Warn("websocket: буфер клиента переполнен, сообщение отброшено",
			zap.Uint64("userID", client.UserID))
		return false
	}
}

// ConnectedUsers - количество пользователей онлайн.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients)
}
