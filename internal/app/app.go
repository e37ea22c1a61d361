// Package app runs the gesture pointer pipeline: camera frames go through the
// landmark detector, the gesture classifier and the action dispatcher, and the
// resulting pointer actions are applied to the desktop.
package app

import (
	"log"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/timeutil"
)

// Default pipeline timing.
const (
	// DefaultIdleFPS is the frame rate while no hand is tracked.
	DefaultIdleFPS = 5
	// DefaultActiveFPS is the frame rate while a hand is tracked.
	DefaultActiveFPS = 30
	// DefaultIdleTimeout is how long without a hand before dropping to idle FPS.
	DefaultIdleTimeout = 2 * time.Second
)

// Config holds configuration options for the application. Nil collaborators
// get defaults: the default camera, MediaPipe (or the mock detector when
// MediaPipe is unavailable), a recording sink and the real clock.
type Config struct {
	Store    *store.Store
	Camera   capture.Camera
	Detector detector.Detector
	Sink     pointer.Sink
	Clock    timeutil.Clock

	DetectorConfig detector.Config
	Gesture        gesture.Config
	Pointer        pointer.Config

	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration
}

// Event describes a gesture transition or a dispatched non-move action.
type Event struct {
	Gesture   string `json:"gesture"`
	Action    string `json:"action,omitempty"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Delta     int    `json:"delta"`
	Timestamp int64  `json:"timestamp"`
}

// App is the main application that turns hand gestures into pointer actions.
type App struct {
	config     Config
	camera     capture.Camera
	detector   detector.Detector
	sink       pointer.Sink
	clock      timeutil.Clock
	classifier *gesture.Classifier
	dispatcher *pointer.Dispatcher

	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}
	doneCh  chan struct{}

	// pmu serializes frames and forced releases through the classifier and dispatcher.
	pmu sync.Mutex

	// journal and listener state, guarded by jmu
	jmu       sync.Mutex
	listeners []func(Event)
	session   *store.Session
	frames    int
	actions   int
	lastGest  string
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.Clock == nil {
		config.Clock = timeutil.RealClock{}
	}
	if config.IdleFPS <= 0 {
		config.IdleFPS = DefaultIdleFPS
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = DefaultActiveFPS
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	if config.DetectorConfig.MaxHands == 0 {
		config.DetectorConfig = detector.DefaultConfig()
	}
	if config.Gesture.PinchThreshold == 0 {
		config.Gesture = gesture.DefaultConfig()
	}
	if config.Pointer.DoubleClickWindow == 0 {
		config.Pointer = pointer.DefaultConfig()
	}

	a := &App{
		config:     config,
		camera:     config.Camera,
		detector:   config.Detector,
		sink:       config.Sink,
		clock:      config.Clock,
		classifier: gesture.NewClassifier(config.Gesture),
		dispatcher: pointer.NewDispatcher(config.Pointer, config.Clock),
		enabled:    true,
		lastGest:   gesture.IdleSymbol.String(),
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(capture.DefaultConfig())
	}
	if a.sink == nil {
		a.sink = pointer.NewRecorder()
	}

	// Try MediaPipe first, fall back to mock detector
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(config.DetectorConfig); err == nil {
			a.detector = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}

	return a
}

// SetEnabled enables or disables gesture control. Disabling releases any
// held button before the next frame is processed.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	was := a.enabled
	a.enabled = enabled
	a.mu.Unlock()

	if was == enabled {
		return
	}
	log.Printf("Gesture control enabled: %v", enabled)

	if !enabled {
		a.release()
	}
}

// IsEnabled returns whether gesture control is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// OnEvent registers a listener for gesture transitions and non-move actions.
// Listeners run on the pipeline goroutine; they must not block or call back
// into the App.
func (a *App) OnEvent(fn func(Event)) {
	a.jmu.Lock()
	defer a.jmu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Start opens the camera, opens a journal session and begins the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.config.IdleFPS)

	a.openSession()

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Println("Detection pipeline started")
	return nil
}

// Stop halts the pipeline, releases any held button, closes the journal
// session and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	} else {
		a.release()
	}

	a.closeSession()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Detection pipeline stopped")
}

// Running reports whether the pipeline goroutine is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Dragging reports whether a pointer button is held for a drag.
func (a *App) Dragging() bool {
	a.pmu.Lock()
	defer a.pmu.Unlock()
	return a.dispatcher.Dragging()
}

// Session returns the current journal session, or nil.
func (a *App) Session() *store.Session {
	a.jmu.Lock()
	defer a.jmu.Unlock()
	return a.session
}

func (a *App) openSession() {
	if a.config.Store == nil {
		return
	}
	sess, err := a.config.Store.Sessions().Open(a.clock.Now())
	if err != nil {
		log.Printf("Failed to open session, journal disabled: %v", err)
		return
	}

	a.jmu.Lock()
	a.session = sess
	a.frames, a.actions = 0, 0
	a.jmu.Unlock()
	log.Printf("Session %s opened", sess.ID)
}

func (a *App) closeSession() {
	a.jmu.Lock()
	sess, frames, actions := a.session, a.frames, a.actions
	a.session = nil
	a.jmu.Unlock()

	if sess == nil {
		return
	}
	if err := a.config.Store.Sessions().Close(sess.ID, a.clock.Now(), frames, actions); err != nil {
		log.Printf("Failed to close session %s: %v", sess.ID, err)
		return
	}
	log.Printf("Session %s closed (%d frames, %d actions)", sess.ID, frames, actions)
}
