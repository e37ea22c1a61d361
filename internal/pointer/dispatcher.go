package pointer

import (
	"math"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/timeutil"
)

// Config holds the dispatcher timing and scaling parameters.
type Config struct {
	// ScreenWidth and ScreenHeight bound Move coordinates in pixels.
	ScreenWidth  int
	ScreenHeight int
	// ClickHold debounces presses from held poses (fist, tap, middle pinch).
	ClickHold time.Duration
	// DoubleClickWindow is the longest gap between two index pinches that
	// still folds them into a double click.
	DoubleClickWindow time.Duration
	// MinDragDuration delays pointer movement after an index pinch press.
	MinDragDuration time.Duration
	// ScrollSensitivity scales scroll-pinch displacement into scroll units.
	ScrollSensitivity float64
}

// DefaultConfig returns the default dispatcher parameters for a 1920x1080 screen.
func DefaultConfig() Config {
	return Config{
		ScreenWidth:       1920,
		ScreenHeight:      1080,
		ClickHold:         500 * time.Millisecond,
		DoubleClickWindow: 500 * time.Millisecond,
		MinDragDuration:   150 * time.Millisecond,
		ScrollSensitivity: 2,
	}
}

type dragState int

const (
	dragNone dragState = iota
	dragPinch
	dragFist
)

// Dispatcher maps gesture readings to pointer actions. It holds the drag and
// click timing state and guarantees every ButtonDown it emits is matched by
// exactly one ButtonUp. A Dispatcher is not safe for concurrent use.
type Dispatcher struct {
	config Config
	clock  timeutil.Clock

	drag       dragState
	pinchStart time.Time
	lastClick  time.Time
	lastPress  time.Time
	lastRight  time.Time
	fistArmed  bool
	last       gesture.Symbol
}

// NewDispatcher creates a Dispatcher. A nil clock uses the real clock.
func NewDispatcher(config Config, clock timeutil.Clock) *Dispatcher {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Dispatcher{config: config, clock: clock, last: gesture.IdleSymbol}
}

// Config returns the dispatcher parameters.
func (d *Dispatcher) Config() Config {
	return d.config
}

// Dragging reports whether a button is held down for a drag.
func (d *Dispatcher) Dragging() bool {
	return d.drag != dragNone
}

// Dispatch consumes one frame's reading and returns at most one action.
// Symbols with an unknown kind are treated as Idle.
func (d *Dispatcher) Dispatch(r gesture.Reading) (Action, bool) {
	sym := r.Symbol
	if !sym.Known() {
		sym = gesture.IdleSymbol
	}
	now := d.clock.Now()

	a, ok := d.dispatch(sym, r, now)
	if sym.Kind != gesture.Fist {
		d.fistArmed = false
	}
	d.last = sym
	return a, ok
}

// Release lifts any held button. It is safe to call at any time and emits
// at most one ButtonUp.
func (d *Dispatcher) Release() (Action, bool) {
	d.fistArmed = false
	d.last = gesture.IdleSymbol
	return d.release()
}

func (d *Dispatcher) release() (Action, bool) {
	if d.drag == dragNone {
		return Action{}, false
	}
	d.drag = dragNone
	return Up(Left), true
}

func (d *Dispatcher) dispatch(sym gesture.Symbol, r gesture.Reading, now time.Time) (Action, bool) {
	switch d.drag {
	case dragPinch:
		if !sym.IsPinch(gesture.Index) {
			return d.release()
		}
		if now.Sub(d.pinchStart) < d.config.MinDragDuration {
			return Action{}, false
		}
		return d.move(r)

	case dragFist:
		if sym.Kind != gesture.Fist && sym.Kind != gesture.CursorPoint {
			return d.release()
		}
		return d.move(r)
	}

	switch sym.Kind {
	case gesture.CursorPoint:
		return d.move(r)

	case gesture.PinchClick:
		if sym.Finger == gesture.Middle {
			return d.rightClick(now)
		}
		return d.indexPinch(now)

	case gesture.PinchScroll:
		return d.scroll(sym)

	case gesture.TapClick:
		if d.debounced(now) {
			return Action{}, false
		}
		d.lastPress = now
		return ClickOf(Left), true

	case gesture.Fist:
		if d.last.Kind == gesture.Fist && !d.fistArmed {
			return Action{}, false
		}
		if d.debounced(now) {
			d.fistArmed = true
			return Action{}, false
		}
		d.fistArmed = false
		d.drag = dragFist
		d.lastPress = now
		return Down(Left), true
	}

	// Idle and OpenHand: nothing is held at this point.
	return Action{}, false
}

func (d *Dispatcher) indexPinch(now time.Time) (Action, bool) {
	// Still pinching after a double click.
	if d.last.IsPinch(gesture.Index) {
		return Action{}, false
	}
	if !d.lastClick.IsZero() && now.Sub(d.lastClick) < d.config.DoubleClickWindow {
		d.lastClick = time.Time{}
		return DoubleClickOf(Left), true
	}
	d.drag = dragPinch
	d.pinchStart = now
	d.lastClick = now
	return Down(Left), true
}

func (d *Dispatcher) rightClick(now time.Time) (Action, bool) {
	if d.last.IsPinch(gesture.Middle) {
		return Action{}, false
	}
	if !d.lastRight.IsZero() && now.Sub(d.lastRight) < d.config.ClickHold {
		return Action{}, false
	}
	d.lastRight = now
	return ClickOf(Right), true
}

func (d *Dispatcher) scroll(sym gesture.Symbol) (Action, bool) {
	if sym.Phase != gesture.ScrollDelta || math.IsNaN(sym.Value) {
		return Action{}, false
	}
	s := sym.Value * d.config.ScrollSensitivity
	if math.Abs(s) < 1 {
		return Action{}, false
	}
	return ScrollBy(-int(math.Round(s))), true
}

// debounced reports whether a press at now falls within ClickHold of the
// previous click or press.
func (d *Dispatcher) debounced(now time.Time) bool {
	for _, t := range []time.Time{d.lastClick, d.lastPress} {
		if !t.IsZero() && now.Sub(t) < d.config.ClickHold {
			return true
		}
	}
	return false
}

func (d *Dispatcher) move(r gesture.Reading) (Action, bool) {
	if !r.Tracked {
		return Action{}, false
	}
	x, y := d.ScreenPoint(r.Position)
	return MoveTo(x, y), true
}

// ScreenPoint scales a normalized position to screen pixels, clamped to
// [0, width-1] x [0, height-1].
func (d *Dispatcher) ScreenPoint(p gesture.Position) (int, int) {
	return scale(p.X, d.config.ScreenWidth), scale(p.Y, d.config.ScreenHeight)
}

func scale(v float64, size int) int {
	if size <= 0 || math.IsNaN(v) {
		return 0
	}
	f := v * float64(size)
	if f < 0 {
		return 0
	}
	if hi := float64(size - 1); f > hi {
		return size - 1
	}
	return int(f)
}
