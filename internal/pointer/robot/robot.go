// Package robot drives the operating system pointer with robotgo.
package robot

import (
	"github.com/go-vgo/robotgo"

	"github.com/ayusman/mudra/internal/pointer"
)

// Sink applies pointer actions to the desktop.
type Sink struct{}

// New creates a desktop pointer sink.
func New() *Sink {
	return &Sink{}
}

// ScreenSize returns the primary display size in pixels.
func ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}

// button maps b to robotgo's button names.
func button(b pointer.Button) string {
	switch b {
	case pointer.Right:
		return "right"
	case pointer.Middle:
		return "center"
	default:
		return "left"
	}
}

// Move moves the pointer to absolute screen coordinates.
func (s *Sink) Move(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

// ButtonDown presses b.
func (s *Sink) ButtonDown(b pointer.Button) error {
	return robotgo.Toggle(button(b))
}

// ButtonUp releases b.
func (s *Sink) ButtonUp(b pointer.Button) error {
	return robotgo.Toggle(button(b), "up")
}

// Click clicks b once.
func (s *Sink) Click(b pointer.Button) error {
	robotgo.Click(button(b))
	return nil
}

// DoubleClick clicks b twice.
func (s *Sink) DoubleClick(b pointer.Button) error {
	robotgo.Click(button(b), true)
	return nil
}

// Scroll scrolls vertically; positive delta scrolls up.
func (s *Sink) Scroll(delta int) error {
	switch {
	case delta > 0:
		robotgo.ScrollDir(delta, "up")
	case delta < 0:
		robotgo.ScrollDir(-delta, "down")
	}
	return nil
}

var _ pointer.Sink = (*Sink)(nil)
