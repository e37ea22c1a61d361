package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode health: %v", err)
	}
	return body
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	rec := serve(s, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	body := decodeHealth(t, rec)
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if _, ok := body["uptime"]; !ok {
		t.Error("missing uptime")
	}
	// Optional fields only appear with their collaborators.
	for _, key := range []string{"enabled", "live_clients"} {
		if _, ok := body[key]; ok {
			t.Errorf("unexpected %s without a collaborator", key)
		}
	}

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		if rec := serve(s, method, "/api/health"); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: status = %d, want %d", method, rec.Code, http.StatusMethodNotAllowed)
		}
	}
}

func TestServer_HealthStatus(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	enabled := false
	s := New(Config{Hub: hub, Enabled: func() bool { return enabled }})

	body := decodeHealth(t, serve(s, http.MethodGet, "/api/health"))
	if body["enabled"] != false {
		t.Errorf("enabled = %v, want false", body["enabled"])
	}
	if body["live_clients"] != float64(0) {
		t.Errorf("live_clients = %v, want 0", body["live_clients"])
	}

	enabled = true
	body = decodeHealth(t, serve(s, http.MethodGet, "/api/health"))
	if body["enabled"] != true {
		t.Errorf("enabled = %v, want true", body["enabled"])
	}
}

func TestServer_Routes(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"index.html": "<html><body>journal</body></html>",
		"app.js":     "console.log('live')",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	bare := New(Config{})
	static := New(Config{StaticDir: dir})

	tests := []struct {
		name     string
		server   *Server
		path     string
		wantCode int
		wantBody string
	}{
		{"unknown api path", bare, "/api/nonexistent", http.StatusNotFound, ""},
		{"sessions need a store", bare, "/api/sessions", http.StatusNotFound, ""},
		{"live feed needs a hub", bare, "/api/live", http.StatusNotFound, ""},
		{"no static dir", bare, "/", http.StatusNotFound, ""},
		{"index at root", static, "/", http.StatusOK, files["index.html"]},
		{"static file", static, "/app.js", http.StatusOK, files["app.js"]},
		{"missing static file", static, "/missing.css", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt.server, http.MethodGet, tt.path)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestServer_Handler(t *testing.T) {
	s := New(Config{})

	hs := s.Handler("127.0.0.1:0")

	if hs.Addr != "127.0.0.1:0" {
		t.Errorf("Addr = %q", hs.Addr)
	}
	if hs.Handler != s {
		t.Error("Handler should be the server itself")
	}
	if hs.ReadHeaderTimeout == 0 {
		t.Error("ReadHeaderTimeout should be set")
	}
}
