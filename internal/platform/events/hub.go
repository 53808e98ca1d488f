// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package events

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 2 * time.Second

	// sendBuffer is how many events may queue for one client before it is
	// considered stalled and dropped.
	sendBuffer = 64
)

// client owns the write side of one connection. Only its writer goroutine
// writes to conn after registration.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to connected WebSocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*client
	logger  *slog.Logger
}

// NewHub constructs an empty [Hub].
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		logger:  logger,
	}
}

// Add registers a client connection and starts its writer.
func (hub *Hub) Add(conn *websocket.Conn) {
	subscriber := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	hub.mu.Lock()
	hub.clients[conn] = subscriber
	hub.mu.Unlock()

	go hub.writeLoop(subscriber)
}

// Remove unregisters and closes a client connection.
func (hub *Hub) Remove(conn *websocket.Conn) {
	hub.mu.Lock()
	hub.unregister(conn)
	hub.mu.Unlock()
	_ = conn.Close()
}

// unregister must be called with mu held. Closing send stops the writer.
func (hub *Hub) unregister(conn *websocket.Conn) {
	if subscriber, ok := hub.clients[conn]; ok {
		delete(hub.clients, conn)
		close(subscriber.send)
	}
}

/*
Publish implements [Publisher].

Description: Never waits on a socket. The payload is queued for each
client; a client whose queue is full is dropped.
*/
func (hub *Hub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		hub.logger.Error("event_marshal_failed", slog.String("type", event.Type), slog.Any("error", err))
		return
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()

	for conn, subscriber := range hub.clients {
		select {
		case subscriber.send <- payload:
		default:
			hub.logger.Debug("event_client_stalled", slog.String("remote", conn.RemoteAddr().String()))
			hub.unregister(conn)
			_ = conn.Close()
		}
	}
}

func (hub *Hub) writeLoop(subscriber *client) {
	for payload := range subscriber.send {
		_ = subscriber.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := subscriber.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			hub.logger.Debug("event_client_dropped", slog.Any("error", err))
			hub.Remove(subscriber.conn)
			return
		}
	}
}

// Count reports the number of connected clients.
func (hub *Hub) Count() int {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	return len(hub.clients)
}
