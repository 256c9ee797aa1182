package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// EventNotification 业务通知事件名
const EventNotification = "notification"

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	buffer  int
	logger  *zap.Logger
}

// NewHub creates a new SSE Hub, buffer 为每个客户端的事件缓冲
func NewHub(logger *zap.Logger, buffer int) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		clients: make(map[string]*Client),
		buffer:  buffer,
		logger:  logger.Named("sse"),
	}
}

// NewClient 创建客户端，需调用 Register 后才会收到事件
func (h *Hub) NewClient(id, userID string) *Client {
	return &Client{ID: id, UserID: userID, Events: make(chan Event, h.buffer)}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)))
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// Count 当前连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to all connected clients
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("client buffer full, skipping event", zap.String("client_id", client.ID))
		}
	}
}

// Notification 推送给前端的通知负载
type Notification struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Notify 广播一条业务通知，满足 service.Notifier
func (h *Hub) Notify(kind, message string) {
	data, err := json.Marshal(Notification{Kind: kind, Message: message})
	if err != nil {
		h.logger.Error("encode notification", zap.Error(err))
		return
	}
	h.Broadcast(Event{EventType: EventNotification, Data: string(data)})
}
