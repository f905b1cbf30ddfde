package kinematic

// This package includes the vector and rectangle math shared by movement and AI.
// All quantities are in pixel space with y growing downward.

import (
	"math"
)

// Vector is a 2D vector in pixel space.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vector) Scale(f float64) Vector {
	return Vector{X: v.X * f, Y: v.Y * f}
}

// Length returns the magnitude of the vector.
func (v Vector) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns the unit vector in the direction of v, or the zero vector when v has no length.
func (v Vector) Normalize() Vector {
	length := v.Length()
	if length == 0 {
		return Vector{}
	}
	return Vector{X: v.X / length, Y: v.Y / length}
}

// IsZero reports whether both components are zero.
func (v Vector) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Rect is an axis-aligned rectangle; X and Y are the top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Vector {
	return Vector{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Position returns the top-left corner.
func (r Rect) Position() Vector {
	return Vector{X: r.X, Y: r.Y}
}

// At returns a copy of the rectangle moved to the given top-left corner.
func (r Rect) At(x, y float64) Rect {
	return Rect{X: x, Y: y, W: r.W, H: r.H}
}

// Overlaps reports whether two rectangles intersect. Touching edges do not count.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W &&
		r.X+r.W > o.X &&
		r.Y < o.Y+o.H &&
		r.Y+r.H > o.Y
}

// Heading is the result of Direction: a unit vector and the distance it spans.
type Heading struct {
	X        float64
	Y        float64
	Distance float64
}

// Unit returns the heading as a vector.
func (h Heading) Unit() Vector {
	return Vector{X: h.X, Y: h.Y}
}

// Direction returns the unit vector from (fromX, fromY) to (toX, toY) and the distance between them.
// Coincident points yield the zero heading.
func Direction(fromX, fromY, toX, toY float64) Heading {
	dx := toX - fromX
	dy := toY - fromY
	distance := math.Hypot(dx, dy)
	if distance == 0 {
		return Heading{}
	}
	return Heading{
		X:        dx / distance,
		Y:        dy / distance,
		Distance: distance,
	}
}

// DistanceBetween returns the center-to-center Euclidean distance of two rectangles.
func DistanceBetween(a, b Rect) float64 {
	ca := a.Center()
	cb := b.Center()
	return math.Hypot(cb.X-ca.X, cb.Y-ca.Y)
}

// Clamp limits value to [min, max]. When max < min the result is min.
func Clamp(value, min, max float64) float64 {
	if value > max {
		value = max
	}
	if value < min {
		value = min
	}
	return value
}

// Decay applies exponential damping at rate (per second) over time seconds.
func Decay(value float64, rate float64, time float64) float64 {
	return value * math.Exp(-rate*time)
}
