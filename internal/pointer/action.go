// Package pointer turns gesture readings into pointer actions and applies
// them to an output sink.
package pointer

import "fmt"

// ActionKind is the tag of an Action.
type ActionKind int

const (
	Move ActionKind = iota
	ButtonDown
	ButtonUp
	Click
	DoubleClick
	Scroll
)

var actionNames = map[ActionKind]string{
	Move:        "move",
	ButtonDown:  "button_down",
	ButtonUp:    "button_up",
	Click:       "click",
	DoubleClick: "double_click",
	Scroll:      "scroll",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// Button is a pointer button.
type Button int

const (
	Left Button = iota
	Right
	Middle
)

func (b Button) String() string {
	switch b {
	case Right:
		return "right"
	case Middle:
		return "middle"
	default:
		return "left"
	}
}

// Action is one pointer command. X and Y are absolute screen pixels for Move;
// Delta is the scroll amount for Scroll, positive scrolls up.
type Action struct {
	Kind   ActionKind
	Button Button
	X, Y   int
	Delta  int
}

// MoveTo returns a Move action.
func MoveTo(x, y int) Action {
	return Action{Kind: Move, X: x, Y: y}
}

// Down returns a ButtonDown action.
func Down(b Button) Action {
	return Action{Kind: ButtonDown, Button: b}
}

// Up returns a ButtonUp action.
func Up(b Button) Action {
	return Action{Kind: ButtonUp, Button: b}
}

// ClickOf returns a Click action.
func ClickOf(b Button) Action {
	return Action{Kind: Click, Button: b}
}

// DoubleClickOf returns a DoubleClick action.
func DoubleClickOf(b Button) Action {
	return Action{Kind: DoubleClick, Button: b}
}

// ScrollBy returns a Scroll action.
func ScrollBy(delta int) Action {
	return Action{Kind: Scroll, Delta: delta}
}

func (a Action) String() string {
	switch a.Kind {
	case Move:
		return fmt.Sprintf("move(%d,%d)", a.X, a.Y)
	case Scroll:
		return fmt.Sprintf("scroll(%d)", a.Delta)
	default:
		return a.Kind.String() + ":" + a.Button.String()
	}
}
