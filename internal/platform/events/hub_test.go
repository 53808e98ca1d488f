// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package events_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/comicrewriter/internal/platform/events"
)

/*
TestHub_Publish connects a real WebSocket client and checks that it receives
the welcome message followed by published events.
*/
func TestHub_Publish(t *testing.T) {
	hub := events.NewHub(nil)
	server := httptest.NewServer(events.NewHandler(hub, nil))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var welcome events.Event
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, events.TypeWelcome, welcome.Type)

	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(events.Event{Type: events.TypePageStatus, PageID: "p1", Status: "DONE"})

	var received events.Event
	require.NoError(t, conn.ReadJSON(&received))
	assert.Equal(t, events.TypePageStatus, received.Type)
	assert.Equal(t, "p1", received.PageID)
	assert.Equal(t, "DONE", received.Status)
	assert.False(t, received.At.IsZero())
}

/*
TestHub_RemoveOnDisconnect ensures a closed client is unregistered.
*/
func TestHub_RemoveOnDisconnect(t *testing.T) {
	hub := events.NewHub(nil)
	server := httptest.NewServer(events.NewHandler(hub, nil))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

/*
TestHub_StalledClientDoesNotBlockPublish connects a client that never reads
and floods it with large events. Publish must return promptly and the
stalled client must eventually be dropped.
*/
func TestHub_StalledClientDoesNotBlockPublish(t *testing.T) {
	hub := events.NewHub(nil)
	server := httptest.NewServer(events.NewHandler(hub, nil))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	large := strings.Repeat("x", 128<<10)
	started := time.Now()
	for range 200 {
		hub.Publish(events.Event{Type: events.TypePageStatus, PageID: "p1", Error: large})
	}

	assert.Less(t, time.Since(started), time.Second)
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 5*time.Second, 20*time.Millisecond)
}

/*
TestHandler_RejectsForeignOrigin checks the origin allow-list.
*/
func TestHandler_RejectsForeignOrigin(t *testing.T) {
	hub := events.NewHub(nil)
	server := httptest.NewServer(events.NewHandler(hub, []string{"http://localhost:3000"}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := map[string][]string{"Origin": {"http://evil.example"}}

	_, response, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, response)
	assert.Equal(t, 403, response.StatusCode)
}
