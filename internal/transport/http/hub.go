package http

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// outboundMessage is the envelope for everything the server writes to a
// connection.
type outboundMessage struct {
	Type    string         `json:"type"`
	Payload messagePayload `json:"payload"`
}

type messagePayload struct {
	From string `json:"from"`
	Text string `json:"text"`
}

const botName = "quizbot"

// Hub fans bot and participant messages out to every connection in a chat
// room. It implements app.Messenger; Send never blocks, slow connections
// drop their oldest queued message instead.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan outboundMessage
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]struct{})}
}

// Send broadcasts a bot message into a chat room.
func (h *Hub) Send(chatID, text string) {
	h.broadcast(chatID, outboundMessage{
		Type:    "message",
		Payload: messagePayload{From: botName, Text: text},
	})
}

func (h *Hub) broadcast(chatID string, msg outboundMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[chatID] {
		select {
		case c.send <- msg:
		default:
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- msg:
			default:
			}
		}
	}
}

func (h *Hub) join(chatID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[chatID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[chatID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) leave(chatID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[chatID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, chatID)
	}
	c.close()
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

func (c *client) writePump() {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}
