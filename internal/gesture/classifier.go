package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// Config holds the classifier thresholds. Distances are in normalized image units.
type Config struct {
	// PinchThreshold is the fingertip distance below which two tips touch.
	PinchThreshold float64
	// ScrollGain scales the vertical displacement of a scroll pinch from its anchor.
	ScrollGain float64
	// ScrollMaxDelta caps the magnitude of a scaled scroll displacement (0 = no cap).
	ScrollMaxDelta float64
	// ScrollDeadZone is the scaled displacement a scroll pinch must exceed to emit a delta.
	ScrollDeadZone float64
	// TapDepth is the forward index-tip travel between frames that counts as a tap (0 disables).
	TapDepth float64
	// TrackingLandmark is the landmark reported as the pointer position.
	TrackingLandmark int
}

// DefaultConfig returns the default classifier thresholds.
func DefaultConfig() Config {
	return Config{
		PinchThreshold:   0.04,
		ScrollGain:       20,
		ScrollMaxDelta:   5,
		ScrollDeadZone:   0.2,
		TapDepth:         0.05,
		TrackingLandmark: detector.ThumbTip,
	}
}

// digits pairs each fingertip with the joint it must rise above to count as extended.
var digits = [5][2]int{
	{detector.ThumbTip, detector.ThumbIP},
	{detector.IndexTip, detector.IndexPIP},
	{detector.MiddleTip, detector.MiddlePIP},
	{detector.RingTip, detector.RingPIP},
	{detector.PinkyTip, detector.PinkyPIP},
}

// Classifier turns landmark frames into gesture symbols. It keeps the previous
// frame for tap detection and the scroll anchor for an ongoing scroll pinch.
// A Classifier is not safe for concurrent use.
type Classifier struct {
	config Config

	previous    detector.HandLandmarks
	hasPrevious bool

	scrolling bool
	anchor    detector.Point3D
}

// NewClassifier creates a Classifier with the given thresholds.
func NewClassifier(config Config) *Classifier {
	if config.TrackingLandmark < 0 || config.TrackingLandmark >= detector.NumLandmarks {
		config.TrackingLandmark = detector.ThumbTip
	}
	return &Classifier{config: config}
}

// Config returns the classifier thresholds.
func (c *Classifier) Config() Config {
	return c.config
}

// Classify classifies one frame. A nil hand means no hand was detected: the
// scroll anchor and tap baseline are cleared and the reading is Idle.
//
// With a hand present the first matching rule wins:
//  1. thumb/index pinch, then thumb/middle pinch
//  2. thumb/ring pinch (scroll)
//  3. forward index tap
//  4. extended digit count: 0 is Fist, 5 is OpenHand, anything else CursorPoint
func (c *Classifier) Classify(hand *detector.HandLandmarks) Reading {
	if hand == nil {
		c.Reset()
		return Reading{Symbol: IdleSymbol}
	}

	sym := c.classify(hand)
	if sym.Kind != PinchScroll {
		c.scrolling = false
	}

	c.previous = *hand
	c.hasPrevious = true

	tip := hand.Points[c.config.TrackingLandmark]
	return Reading{
		Symbol:   sym,
		Position: Position{X: tip.X, Y: tip.Y},
		Tracked:  true,
	}
}

// Reset clears the scroll anchor and tap baseline.
func (c *Classifier) Reset() {
	c.scrolling = false
	c.anchor = detector.Point3D{}
	c.hasPrevious = false
	c.previous = detector.HandLandmarks{}
}

func (c *Classifier) classify(h *detector.HandLandmarks) Symbol {
	threshold := c.config.PinchThreshold

	switch {
	case h.Distance(detector.ThumbTip, detector.IndexTip) < threshold:
		return Pinch(Index)
	case h.Distance(detector.ThumbTip, detector.MiddleTip) < threshold:
		return Pinch(Middle)
	case h.Distance(detector.ThumbTip, detector.RingTip) < threshold:
		return c.scroll(h)
	case c.tapped(h):
		return Symbol{Kind: TapClick}
	}

	switch ExtendedDigits(h) {
	case 0:
		return Symbol{Kind: Fist}
	case len(digits):
		return Symbol{Kind: OpenHand}
	default:
		return Symbol{Kind: CursorPoint}
	}
}

// scroll tracks the thumb/ring midpoint against the anchor recorded on the
// first frame of the pinch. Downward motion gives a positive value.
func (c *Classifier) scroll(h *detector.HandLandmarks) Symbol {
	mid := detector.Midpoint(h.Points[detector.ThumbTip], h.Points[detector.RingTip])

	if !c.scrolling {
		c.scrolling = true
		c.anchor = mid
		return Scroll(ScrollStart, 0)
	}

	v := (mid.Y - c.anchor.Y) * c.config.ScrollGain
	if math.IsNaN(v) {
		return Scroll(ScrollHold, 0)
	}
	if limit := c.config.ScrollMaxDelta; limit > 0 {
		v = math.Max(-limit, math.Min(limit, v))
	}
	if math.Abs(v) <= c.config.ScrollDeadZone {
		return Scroll(ScrollHold, 0)
	}
	return Scroll(ScrollDelta, v)
}

// tapped reports a forward jab: the index tip moved toward the camera by more
// than TapDepth since the previous frame.
func (c *Classifier) tapped(h *detector.HandLandmarks) bool {
	if c.config.TapDepth <= 0 || !c.hasPrevious {
		return false
	}
	dz := h.Points[detector.IndexTip].Z - c.previous.Points[detector.IndexTip].Z
	return dz < -c.config.TapDepth
}

// ExtendedDigits counts digits whose tip is above (smaller Y than) its
// proximal joint.
func ExtendedDigits(h *detector.HandLandmarks) int {
	if h == nil {
		return 0
	}
	n := 0
	for _, d := range digits {
		if h.Points[d[0]].Y < h.Points[d[1]].Y {
			n++
		}
	}
	return n
}
