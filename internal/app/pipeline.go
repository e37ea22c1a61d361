package app

import (
	"log"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/store"
)

// runPipeline is the main detection loop that processes frames from the camera.
//
// Pipeline logic:
//  1. Start in idle mode (IdleFPS)
//  2. Read a frame and detect hands; a read or detection failure counts as no hand
//  3. Classify the primary hand and dispatch the resulting pointer action
//  4. While a hand is tracked run at ActiveFPS
//  5. After IdleTimeout without a hand, switch back to idle mode
//  6. On exit, release any held button
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	defer a.release()

	activeMode := false
	lastSeen := a.clock.Now()

	ticker := time.NewTicker(frameInterval(a.config.IdleFPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// Skip processing if gesture control is disabled
			if !a.IsEnabled() {
				continue
			}

			hands := a.detect()
			a.Process(hands)

			if len(hands) > 0 {
				lastSeen = a.clock.Now()
				if !activeMode {
					activeMode = true
					a.camera.SetFPS(a.config.ActiveFPS)
					ticker.Reset(frameInterval(a.config.ActiveFPS))
					log.Println("Switched to active mode")
				}
			} else if activeMode && a.clock.Since(lastSeen) > a.config.IdleTimeout {
				activeMode = false
				a.camera.SetFPS(a.config.IdleFPS)
				ticker.Reset(frameInterval(a.config.IdleFPS))
				log.Println("Switched to idle mode")
			}
		}
	}
}

func frameInterval(fps int) time.Duration {
	return time.Second / time.Duration(fps)
}

// detect reads one frame and returns the detected hands. Failures are logged
// and reported as no hand so the dispatcher releases any held button.
func (a *App) detect() []detector.HandLandmarks {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		log.Printf("Error reading frame: %v", err)
		return nil
	}
	defer frame.Close()

	d := a.Detector()
	if d == nil {
		return nil
	}

	hands, err := d.Detect(frame)
	if err != nil {
		log.Printf("Error detecting hands: %v", err)
		return nil
	}
	return hands
}

// Process runs one frame through the classifier and dispatcher, applies the
// resulting action and journals it. An empty hands slice is a frame with no
// hand; with several hands the highest-scoring one is tracked. Frames are
// ignored while gesture control is disabled.
func (a *App) Process(hands []detector.HandLandmarks) (pointer.Action, bool) {
	a.pmu.Lock()
	defer a.pmu.Unlock()

	// Disabled between detection and dispatch: drop the frame so nothing is
	// pressed after the disable release has run.
	if !a.IsEnabled() {
		return pointer.Action{}, false
	}

	reading := a.classifier.Classify(detector.Primary(hands))
	action, ok := a.dispatcher.Dispatch(reading)
	if ok {
		a.apply(action)
	}
	a.record(reading.Symbol, action, ok, true)

	return action, ok
}

// release lifts any held button outside the frame flow (disable, shutdown).
func (a *App) release() {
	a.pmu.Lock()
	defer a.pmu.Unlock()

	a.classifier.Reset()
	action, ok := a.dispatcher.Release()
	if !ok {
		return
	}
	a.apply(action)
	a.record(gesture.IdleSymbol, action, true, false)
}

func (a *App) apply(action pointer.Action) {
	if err := pointer.Apply(a.sink, action); err != nil {
		log.Printf("Error applying pointer action: %v", err)
	}
}

// record updates counters, journals non-move actions and notifies listeners
// of gesture transitions and non-move actions.
func (a *App) record(sym gesture.Symbol, action pointer.Action, ok, frame bool) {
	name := sym.String()
	journaled := ok && action.Kind != pointer.Move

	a.jmu.Lock()
	if frame {
		a.frames++
	}
	if journaled {
		a.actions++
	}
	changed := name != a.lastGest
	a.lastGest = name
	sess := a.session
	listeners := append([]func(Event)(nil), a.listeners...)
	a.jmu.Unlock()

	if !changed && !journaled {
		return
	}

	now := a.clock.Now()
	ev := Event{Gesture: name, Timestamp: now.UnixMilli()}
	if ok {
		ev.Action = action.String()
		ev.X, ev.Y, ev.Delta = action.X, action.Y, action.Delta
	}

	if journaled && sess != nil {
		err := a.config.Store.Events().Create(&store.Event{
			SessionID: sess.ID,
			Gesture:   name,
			Action:    ev.Action,
			X:         action.X,
			Y:         action.Y,
			Delta:     action.Delta,
			CreatedAt: now,
		})
		if err != nil {
			log.Printf("Failed to journal event: %v", err)
		}
	}

	for _, fn := range listeners {
		fn(ev)
	}
}
