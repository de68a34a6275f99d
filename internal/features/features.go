// Package features derives scalar and vector gesture features from a single
// landmark frame. Everything here is pure: no state, no I/O.
package features

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/handsteer/internal/detector"
)

// MinPointingScale floors the wrist to index-MCP distance used to normalize
// the pointing vector, so tiny or edge-on hands do not blow it up.
const MinPointingScale = 0.05

// Mask records which features were computed for a frame.
type Mask uint8

// Feature bits.
const (
	HasMove Mask = 1 << iota
	HasPinch
	HasFist
	HasPointing
)

// fingertips used for fist compactness.
var fingertips = [...]int{
	detector.ThumbTip,
	detector.IndexTip,
	detector.MiddleTip,
	detector.RingTip,
	detector.PinkyTip,
}

// FeatureSet holds the features of one frame. A field is only meaningful
// when its bit is set in Present.
type FeatureSet struct {
	// MoveX is the wrist x coordinate clamped to [0,1].
	MoveX float64
	// PinchDistance is the thumb-tip to index-tip distance.
	PinchDistance float64
	// FistCompactness is the mean wrist to fingertip distance; smaller is a tighter fist.
	FistCompactness float64
	// PointingVector is index-tip minus wrist in units of the wrist to
	// index-MCP distance, each axis clamped to [-1,1].
	PointingVector r2.Vec
	// PointingMagnitude is the norm of PointingVector.
	PointingMagnitude float64
	// PointingStraightness is chord over path length MCP->PIP->DIP->tip.
	// 1 is a straight finger; 0 when PIP or DIP is missing.
	PointingStraightness float64

	Present Mask
}

// Has reports whether every feature in m was computed.
func (f FeatureSet) Has(m Mask) bool {
	return f.Present&m == m
}

// Extract computes the features of a hand. It returns false when there is no
// hand at all. Features whose landmarks are missing are left out of Present.
func Extract(hand *detector.HandLandmarks) (FeatureSet, bool) {
	var fs FeatureSet
	if hand == nil || len(hand.Points) == 0 {
		return fs, false
	}

	wrist, hasWrist := planar(hand, detector.Wrist)

	if hasWrist {
		fs.MoveX = clamp(wrist.X, 0, 1)
		fs.Present |= HasMove
	}

	thumb, hasThumb := planar(hand, detector.ThumbTip)
	index, hasIndex := planar(hand, detector.IndexTip)
	if hasThumb && hasIndex {
		fs.PinchDistance = distance(thumb, index)
		fs.Present |= HasPinch
	}

	if hasWrist {
		if c, ok := compactness(hand, wrist); ok {
			fs.FistCompactness = c
			fs.Present |= HasFist
		}
	}

	mcp, hasMCP := planar(hand, detector.IndexMCP)
	if hasWrist && hasIndex && hasMCP {
		scale := math.Max(MinPointingScale, distance(mcp, wrist))
		v := r2.Scale(1/scale, r2.Sub(index, wrist))
		v.X = clamp(v.X, -1, 1)
		v.Y = clamp(v.Y, -1, 1)

		fs.PointingVector = v
		fs.PointingMagnitude = r2.Norm(v)
		fs.PointingStraightness = straightness(hand, mcp, index)
		fs.Present |= HasPointing
	}

	return fs, true
}

func compactness(hand *detector.HandLandmarks, wrist r2.Vec) (float64, bool) {
	var sum float64
	for _, i := range fingertips {
		tip, ok := planar(hand, i)
		if !ok {
			return 0, false
		}
		sum += distance(wrist, tip)
	}
	return sum / float64(len(fingertips)), true
}

func straightness(hand *detector.HandLandmarks, mcp, tip r2.Vec) float64 {
	pip, hasPIP := planar(hand, detector.IndexPIP)
	dip, hasDIP := planar(hand, detector.IndexDIP)
	if !hasPIP || !hasDIP {
		return 0
	}

	path := distance(mcp, pip) + distance(pip, dip) + distance(dip, tip)
	if path <= 1e-6 {
		return 0
	}
	return distance(mcp, tip) / path
}

// planar returns landmark i projected onto the image plane.
func planar(hand *detector.HandLandmarks, i int) (r2.Vec, bool) {
	p, ok := hand.Point(i)
	if !ok {
		return r2.Vec{}, false
	}
	return r2.Vec{X: p.X, Y: p.Y}, true
}

func distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
