// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package events

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
)

// Handler upgrades requests to WebSocket and subscribes them to a [Hub].
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler constructs a WebSocket [Handler]. An empty origins list accepts
// any origin; otherwise the Origin header must match one entry exactly.
func NewHandler(hub *Hub, origins []string) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(request *http.Request) bool {
				origin := request.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || slices.Contains(origins, origin)
			},
		},
	}
}

/*
GET /ws.

Response:
  - 101: Switching Protocols, then one JSON [Event] per message
*/
func (handler *Handler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	conn, err := handler.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}

	_ = conn.WriteJSON(Event{Type: TypeWelcome, At: time.Now().UTC()})
	handler.hub.Add(conn)

	// Incoming messages are ignored; reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	handler.hub.Remove(conn)
}
