// Package hub fans sync progress events out to websocket subscribers.
package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gridsync/internal/sheetsync"
)

const defaultHistorySize = 50

// Message is the wire form of a progress event.
type Message struct {
	Type    string    `json:"type"`
	SheetID string    `json:"sheet_id,omitempty"`
	Count   int       `json:"count,omitempty"`
	Batch   int       `json:"batch,omitempty"`
	At      time.Time `json:"at"`
}

type Stats struct {
	Clients int `json:"clients"`
	History int `json:"history"`
}

const (
	// sendBuffer is how many messages beyond the replayed history a
	// subscriber may lag before it is dropped.
	sendBuffer = 64
	writeWait  = 2 * time.Second
)

// Subscriber is one registered websocket with its outbound queue.
type Subscriber struct {
	ws      *websocket.Conn
	sheetID string
	send    chan []byte
}

// Hub tracks subscribers and the most recent messages. A subscriber with a
// sheet filter only receives messages for that sheet. Broadcast never writes
// to a socket; it queues, and a subscriber whose queue is full is dropped.
type Hub struct {
	mu          sync.Mutex
	clients     map[*websocket.Conn]*Subscriber
	history     []Message
	historySize int
}

func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &Hub{
		clients:     make(map[*websocket.Conn]*Subscriber),
		historySize: historySize,
	}
}

// Add registers ws with the buffered history matching sheetID already
// queued. The caller runs WritePump to deliver the queue.
func (h *Hub) Add(ws *websocket.Conn, sheetID string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub := &Subscriber{ws: ws, sheetID: sheetID, send: make(chan []byte, h.historySize+sendBuffer)}
	for _, m := range h.history {
		if !matches(sheetID, m) {
			continue
		}
		if b, err := json.Marshal(m); err == nil {
			sub.send <- b
		}
	}
	h.clients[ws] = sub
	return sub
}

// WritePump writes queued messages until the subscriber is removed or a
// write fails.
func (h *Hub) WritePump(sub *Subscriber) {
	for b := range sub.send {
		_ = sub.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.ws.WriteMessage(websocket.TextMessage, b); err != nil {
			h.Remove(sub.ws)
			return
		}
	}
}

func (h *Hub) Remove(ws *websocket.Conn) {
	h.mu.Lock()
	h.dropLocked(ws)
	h.mu.Unlock()
	_ = ws.Close()
}

func (h *Hub) dropLocked(ws *websocket.Conn) {
	if sub, ok := h.clients[ws]; ok {
		delete(h.clients, ws)
		close(sub.send)
	}
}

// Publish implements sheetsync.Publisher.
func (h *Hub) Publish(ev sheetsync.Event) {
	h.Broadcast(Message{
		Type:    ev.Type,
		SheetID: ev.SheetID,
		Count:   ev.Count,
		Batch:   ev.Batch,
		At:      time.Now().UTC(),
	})
}

func (h *Hub) Broadcast(m Message) {
	b, err := json.Marshal(m)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.history = append(h.history, m)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}

	for ws, sub := range h.clients {
		if !matches(sub.sheetID, m) {
			continue
		}
		select {
		case sub.send <- b:
		default:
			h.dropLocked(ws)
			_ = ws.Close()
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{Clients: len(h.clients), History: len(h.history)}
}

func matches(filter string, m Message) bool {
	return filter == "" || filter == m.SheetID
}
