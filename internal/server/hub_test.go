package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cretemeteo/meteo-monitor/internal/models"
)

func setupHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(testLogger())
	t.Cleanup(hub.Close)

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	return hub, srv
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial hub: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub, srv := setupHub(t)
	conn := dialHub(t, srv)

	waitForClients(t, hub, 1)

	hub.Broadcast(models.EventImportCompleted, models.ImportCompletedEvent{
		StationID: "st-01",
		Summary:   models.ImportSummary{Success: true, Inserted: 3},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event models.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}

	if event.Type != models.EventImportCompleted {
		t.Errorf("event.Type = %v, want %v", event.Type, models.EventImportCompleted)
	}

	var payload models.ImportCompletedEvent
	if err := event.UnmarshalPayload(&payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	if payload.StationID != "st-01" || payload.Summary.Inserted != 3 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestHub_DroppedClientRemoved(t *testing.T) {
	hub, srv := setupHub(t)
	conn := dialHub(t, srv)

	waitForClients(t, hub, 1)
	conn.Close()

	// A broadcast to the closed connection should evict it.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() > 0 && time.Now().Before(deadline) {
		hub.Broadcast(models.EventStationUpdated, models.StationEvent{StationID: "st-01"})
		time.Sleep(10 * time.Millisecond)
	}

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0 after client closed", hub.ClientCount())
	}
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
