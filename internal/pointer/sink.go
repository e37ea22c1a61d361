package pointer

import (
	"fmt"
	"sync"
)

// Sink executes pointer actions on the operating system.
type Sink interface {
	Move(x, y int) error
	ButtonDown(b Button) error
	ButtonUp(b Button) error
	Click(b Button) error
	DoubleClick(b Button) error
	Scroll(delta int) error
}

// Apply executes a on s.
func Apply(s Sink, a Action) error {
	var err error
	switch a.Kind {
	case Move:
		err = s.Move(a.X, a.Y)
	case ButtonDown:
		err = s.ButtonDown(a.Button)
	case ButtonUp:
		err = s.ButtonUp(a.Button)
	case Click:
		err = s.Click(a.Button)
	case DoubleClick:
		err = s.DoubleClick(a.Button)
	case Scroll:
		err = s.Scroll(a.Delta)
	default:
		return fmt.Errorf("unknown action %v", a.Kind)
	}
	if err != nil {
		return fmt.Errorf("apply %s: %w", a, err)
	}
	return nil
}

// Recorder is a Sink that records every action it receives.
// It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	actions []Action
	err     error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SetError makes every subsequent call fail with err after recording.
func (r *Recorder) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Actions returns a copy of the recorded actions.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// Pressed reports ButtonDown count minus ButtonUp count.
func (r *Recorder) Pressed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.actions {
		switch a.Kind {
		case ButtonDown:
			n++
		case ButtonUp:
			n--
		}
	}
	return n
}

func (r *Recorder) record(a Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
	return r.err
}

func (r *Recorder) Move(x, y int) error        { return r.record(MoveTo(x, y)) }
func (r *Recorder) ButtonDown(b Button) error  { return r.record(Down(b)) }
func (r *Recorder) ButtonUp(b Button) error    { return r.record(Up(b)) }
func (r *Recorder) Click(b Button) error       { return r.record(ClickOf(b)) }
func (r *Recorder) DoubleClick(b Button) error { return r.record(DoubleClickOf(b)) }
func (r *Recorder) Scroll(delta int) error     { return r.record(ScrollBy(delta)) }
