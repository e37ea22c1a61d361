package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/store"
)

func TestAPI_SessionWorkflow(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	sess, err := s.Sessions().Open(time.Now())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	for _, action := range []string{"button_down:left", "button_up:left"} {
		if err := s.Events().Create(&store.Event{SessionID: sess.ID, Gesture: "pinch_click:index", Action: action}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. List sessions
	resp, err := client.Get(ts.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("GET /api/sessions error = %v", err)
	}
	var listed struct {
		Sessions []struct {
			ID string `json:"id"`
		} `json:"sessions"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Sessions) != 1 || listed.Sessions[0].ID != sess.ID {
		t.Fatalf("sessions = %+v, want only %s", listed.Sessions, sess.ID)
	}

	// 2. Events of the session
	resp, _ = client.Get(ts.URL + "/api/sessions/" + sess.ID + "/events")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET events status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var events struct {
		Events []struct {
			Action string `json:"action"`
		} `json:"events"`
	}
	json.NewDecoder(resp.Body).Decode(&events)
	resp.Body.Close()

	if len(events.Events) != 2 || events.Events[1].Action != "button_up:left" {
		t.Errorf("events = %+v", events.Events)
	}

	// 3. Delete and verify
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+sess.ID, nil)
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()

	resp, _ = client.Get(ts.URL + "/api/sessions/" + sess.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}

// waitForClients polls until the hub has n clients or the deadline passes.
func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("hub has %d clients, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_LiveFeed(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, 1)

	hub.Publish(map[string]any{"gesture": "fist", "action": "button_down:left"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg["gesture"] != "fist" || msg["action"] != "button_down:left" {
		t.Errorf("unexpected message %v", msg)
	}

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_PublishWithoutClients(t *testing.T) {
	hub := NewHub()

	// Must not block or panic.
	hub.Publish(map[string]string{"gesture": "idle"})
	hub.Close()
	hub.Publish(map[string]string{"gesture": "idle"})

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}

func TestHub_DropsSlowClients(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	// A client with no writer goroutine never drains its buffer.
	c := &client{send: make(chan []byte, clientBuffer)}
	hub.add(c)

	for i := 0; i <= clientBuffer; i++ {
		hub.Publish(i)
	}

	if hub.ClientCount() != 0 {
		t.Errorf("slow client should have been dropped, %d remain", hub.ClientCount())
	}
}
