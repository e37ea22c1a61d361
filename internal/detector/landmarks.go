// Package detector provides hand detection interfaces and the landmark frame types
// consumed by gesture classification.
package detector

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is one landmark. X and Y are normalized to [0,1] in the camera frame
// (Y grows downward); Z is depth relative to the wrist.
type Point3D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
// A value is treated as immutable once produced by a Detector.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

func (p Point3D) vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// Distance returns the 3-D Euclidean distance between two points.
func Distance(a, b Point3D) float64 {
	return r3.Norm(r3.Sub(a.vec(), b.vec()))
}

// PlanarDistance returns the Euclidean distance between two points ignoring depth.
func PlanarDistance(a, b Point3D) float64 {
	return r2.Norm(r2.Sub(r2.Vec{X: a.X, Y: a.Y}, r2.Vec{X: b.X, Y: b.Y}))
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point3D) Point3D {
	m := r3.Scale(0.5, r3.Add(a.vec(), b.vec()))
	return Point3D{X: m.X, Y: m.Y, Z: m.Z}
}

// Distance returns the 3-D distance between two landmarks of the hand.
// Out-of-range indices yield 0.
func (h *HandLandmarks) Distance(i, j int) float64 {
	if h == nil || !validIndex(i) || !validIndex(j) {
		return 0
	}
	return Distance(h.Points[i], h.Points[j])
}

// Translated returns a copy of the hand shifted by (dx, dy) in the image plane.
func (h HandLandmarks) Translated(dx, dy float64) HandLandmarks {
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}

func validIndex(i int) bool {
	return i >= 0 && i < NumLandmarks
}
