package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/songpad/api/internal/model"
)

// Client represents a WebSocket client subscribed to one document's tasks.
type Client struct {
	DocumentID string
	Conn       *websocket.Conn
	Send       chan []byte
}

// Hub maintains active WebSocket connections grouped by document.
type Hub struct {
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	mu sync.RWMutex
}

// BroadcastMessage represents a message to broadcast
type BroadcastMessage struct {
	DocumentID string
	Message    []byte
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.DocumentID] == nil {
				h.clients[client.DocumentID] = make(map[*Client]bool)
			}
			h.clients[client.DocumentID][client] = true
			h.mu.Unlock()
			log.Printf("Client registered for document %s", client.DocumentID)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.DocumentID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.clients, client.DocumentID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("Client unregistered from document %s", client.DocumentID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			if clients, ok := h.clients[msg.DocumentID]; ok {
				for client := range clients {
					select {
					case client.Send <- msg.Message:
					default:
						close(client.Send)
						delete(clients, client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a new client
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// NotifyTaskUpdate pushes a task state change to the document's subscribers.
// Satisfies service.TaskNotifier.
func (h *Hub) NotifyTaskUpdate(task *model.SongTask) {
	msg := model.WSTaskUpdateMessage{
		Type:          model.WSMessageTypeTaskUpdate,
		DocumentID:    task.DocumentID,
		TaskID:        task.ID,
		Status:        task.Status,
		AudioURL:      task.AudioURL,
		FailureReason: task.FailureReason,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal task update message: %v", err)
		return
	}

	h.broadcast <- &BroadcastMessage{
		DocumentID: task.DocumentID,
		Message:    data,
	}
}

// HandleConnection handles a WebSocket connection
func (h *Hub) HandleConnection(c *websocket.Conn, documentID string) {
	client := &Client{
		DocumentID: documentID,
		Conn:       c,
		Send:       make(chan []byte, 256),
	}

	h.Register(client)
	defer h.Unregister(client)

	// Start writer goroutine
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				// Send ping for keep-alive
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Handle client messages (ping/pong)
		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == model.WSMessageTypePing {
			pong := model.WSMessage{Type: model.WSMessageTypePong}
			data, _ := json.Marshal(pong)
			client.Send <- data
		}
	}
}
