// Package gesture classifies hand landmark frames into gesture symbols.
package gesture

import "fmt"

// Kind is the tag of a Symbol.
type Kind int

const (
	// Idle means no hand was detected this frame.
	Idle Kind = iota
	// CursorPoint is a neutral pose used to steer the pointer.
	CursorPoint
	// Fist is all five digits curled.
	Fist
	// OpenHand is all five digits extended.
	OpenHand
	// PinchClick is the thumb tip touching the index or middle fingertip.
	PinchClick
	// PinchScroll is the thumb tip touching the ring fingertip.
	PinchScroll
	// TapClick is a quick forward jab of the index fingertip.
	TapClick
)

var kindNames = map[Kind]string{
	Idle:        "idle",
	CursorPoint: "cursor_point",
	Fist:        "fist",
	OpenHand:    "open_hand",
	PinchClick:  "pinch_click",
	PinchScroll: "pinch_scroll",
	TapClick:    "tap_click",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Finger identifies which fingertip closed a PinchClick.
type Finger int

const (
	Index Finger = iota
	Middle
)

func (f Finger) String() string {
	if f == Middle {
		return "middle"
	}
	return "index"
}

// Phase is the stage of a PinchScroll.
type Phase int

const (
	// ScrollStart is the first frame of a scroll pinch; the anchor was just recorded.
	ScrollStart Phase = iota
	// ScrollHold is a scroll pinch that has not left the dead zone.
	ScrollHold
	// ScrollDelta carries a displacement in Symbol.Value.
	ScrollDelta
)

func (p Phase) String() string {
	switch p {
	case ScrollStart:
		return "start"
	case ScrollHold:
		return "hold"
	default:
		return "delta"
	}
}

// Symbol is the per-frame gesture. Finger is meaningful only for PinchClick,
// Phase only for PinchScroll; Value holds the scroll displacement for
// ScrollDelta and is otherwise zero.
type Symbol struct {
	Kind   Kind
	Finger Finger
	Phase  Phase
	Value  float64
}

// IdleSymbol is the symbol for a frame without a hand.
var IdleSymbol = Symbol{Kind: Idle}

// Pinch returns a PinchClick symbol for the given finger.
func Pinch(f Finger) Symbol {
	return Symbol{Kind: PinchClick, Finger: f}
}

// Scroll returns a PinchScroll symbol. value is only kept for ScrollDelta.
func Scroll(p Phase, value float64) Symbol {
	if p != ScrollDelta {
		value = 0
	}
	return Symbol{Kind: PinchScroll, Phase: p, Value: value}
}

// IsPinch reports whether s is a PinchClick with finger f.
func (s Symbol) IsPinch(f Finger) bool {
	return s.Kind == PinchClick && s.Finger == f
}

// Known reports whether s carries one of the defined kinds.
func (s Symbol) Known() bool {
	_, ok := kindNames[s.Kind]
	return ok
}

// String renders the symbol as "kind", "pinch_click:index" or "pinch_scroll:delta".
func (s Symbol) String() string {
	switch s.Kind {
	case PinchClick:
		return s.Kind.String() + ":" + s.Finger.String()
	case PinchScroll:
		return s.Kind.String() + ":" + s.Phase.String()
	default:
		return s.Kind.String()
	}
}

// Position is a normalized image-plane coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Reading is the classifier's output for one frame. Tracked is true whenever
// a hand was present, in which case Position holds the tracking landmark.
type Reading struct {
	Symbol   Symbol
	Position Position
	Tracked  bool
}
