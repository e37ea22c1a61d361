package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/timeutil"
)

const frameInterval = 33 * time.Millisecond

// scriptedDetector returns one scripted frame per call and advances the clock
// by a frame interval. Once the script is exhausted it closes done and reports
// no hand, or keeps repeating the last frame when hold is set.
type scriptedDetector struct {
	mu     sync.Mutex
	frames [][]detector.HandLandmarks
	clock  *timeutil.MockClock
	hold   bool
	next   int
	done   chan struct{}
	closed bool
}

func newScriptedDetector(frames [][]detector.HandLandmarks, clock *timeutil.MockClock) *scriptedDetector {
	return &scriptedDetector{frames: frames, clock: clock, done: make(chan struct{})}
}

func (d *scriptedDetector) Detect(*gocv.Mat) ([]detector.HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.clock.Advance(frameInterval)
	if d.next >= len(d.frames) {
		if !d.closed {
			d.closed = true
			close(d.done)
		}
		if d.hold && len(d.frames) > 0 {
			return d.frames[len(d.frames)-1], nil
		}
		return nil, nil
	}
	hands := d.frames[d.next]
	d.next++
	return hands, nil
}

func (d *scriptedDetector) Close() error { return nil }

type harness struct {
	store *store.Store
	app   *app.App
	sink  *pointer.Recorder
	det   *scriptedDetector
	ts    *httptest.Server
	hub   *server.Hub
}

func newHarness(t *testing.T, seq *Sequence) *harness {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	frames, err := seq.Frames()
	if err != nil {
		t.Fatalf("Frames() error = %v", err)
	}

	clock := timeutil.NewMockClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	h := &harness{
		store: s,
		sink:  pointer.NewRecorder(),
		det:   newScriptedDetector(frames, clock),
		hub:   server.NewHub(),
	}
	h.app = app.New(app.Config{
		Store:     s,
		Camera:    capture.NewBlankCamera(64, 48),
		Detector:  h.det,
		Sink:      h.sink,
		Clock:     clock,
		IdleFPS:   200,
		ActiveFPS: 200,
	})
	h.app.OnEvent(func(e app.Event) { h.hub.Publish(e) })

	h.ts = httptest.NewServer(server.New(server.Config{
		Store:   s,
		Hub:     h.hub,
		Enabled: h.app.IsEnabled,
	}))
	t.Cleanup(func() {
		h.hub.Close()
		h.ts.Close()
	})
	return h
}

// replay starts the pipeline, waits for the script to finish and stops it.
// It returns the id of the recorded session.
func (h *harness) replay(t *testing.T) string {
	t.Helper()

	if err := h.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	sess := h.app.Session()
	if sess == nil {
		t.Fatal("Start() did not open a session")
	}

	select {
	case <-h.det.done:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not finish the script")
	}
	h.app.Stop()

	return sess.ID
}

func (h *harness) journal(t *testing.T, id string) []Expected {
	t.Helper()

	resp, err := h.ts.Client().Get(h.ts.URL + "/api/sessions/" + id + "/events")
	if err != nil {
		t.Fatalf("GET events error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET events status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body struct {
		Events []Expected `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	return body.Events
}

func TestE2E_Sequences(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	seqs, err := loadSequences()
	if err != nil {
		t.Fatalf("loadSequences() error = %v", err)
	}
	if len(seqs) == 0 {
		t.Fatal("no sequences found")
	}

	for _, seq := range seqs {
		t.Run(seq.Name, func(t *testing.T) {
			h := newHarness(t, seq)

			id := h.replay(t)

			got := h.journal(t, id)
			if diff := cmp.Diff(seq.Expect, got); diff != "" {
				t.Errorf("journal mismatch (-want +got):\n%s", diff)
			}
			if n := h.sink.Pressed(); n != 0 {
				t.Errorf("%d buttons still held after stop", n)
			}

			sess, err := h.store.Sessions().GetByID(id)
			if err != nil {
				t.Fatalf("GetByID() error = %v", err)
			}
			if sess.EndedAt == nil {
				t.Error("session was not closed")
			}
			if sess.Actions != len(seq.Expect) {
				t.Errorf("session actions = %d, want %d", sess.Actions, len(seq.Expect))
			}
		})
	}
}

func TestE2E_LiveFeed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	seq, err := loadSequence("pinch_click")
	if err != nil {
		t.Fatalf("loadSequence() error = %v", err)
	}
	h := newHarness(t, seq)

	wsURL := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/api/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for h.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with the hub")
		}
		time.Sleep(5 * time.Millisecond)
	}

	h.replay(t)

	var got []Expected
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for len(got) < len(seq.Expect) {
		var ev app.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("ReadJSON() error = %v (got %v)", err, got)
		}
		if ev.Action == "" || strings.HasPrefix(ev.Action, "move(") {
			continue
		}
		got = append(got, Expected{Gesture: ev.Gesture, Action: ev.Action})
	}

	if diff := cmp.Diff(seq.Expect, got); diff != "" {
		t.Errorf("live feed mismatch (-want +got):\n%s", diff)
	}
}

func TestE2E_DisableMidDrag(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	seq := &Sequence{Name: "held_fist", Steps: []Step{{Pose: "fist", Repeat: 3}}}
	h := newHarness(t, seq)
	h.det.hold = true

	if err := h.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-h.det.done
	if !h.app.Dragging() {
		t.Fatal("expected the held fist to be dragging")
	}

	h.app.SetEnabled(false)

	if h.app.Dragging() {
		t.Error("disabling should end the drag")
	}
	if n := h.sink.Pressed(); n != 0 {
		t.Errorf("%d buttons still held after disable", n)
	}

	h.app.Stop()

	actions := h.sink.Actions()
	last := actions[len(actions)-1]
	if last != pointer.Up(pointer.Left) {
		t.Errorf("last action = %v, want button_up:left", last)
	}
}

func TestE2E_HealthReportsState(t *testing.T) {
	seq := &Sequence{Name: "empty"}
	h := newHarness(t, seq)
	h.app.SetEnabled(false)

	resp, err := h.ts.Client().Get(h.ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status  string `json:"status"`
		Enabled bool   `json:"enabled"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body.Status != "ok" || body.Enabled {
		t.Errorf("health = %+v, want ok and disabled", body)
	}
}
