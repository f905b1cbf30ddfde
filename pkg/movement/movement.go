package movement

import (
	"math"

	"github.com/cbodonnell/tileworld/pkg/collisions"
	"github.com/cbodonnell/tileworld/pkg/kinematic"
	"github.com/cbodonnell/tileworld/pkg/tilemap"
)

// Direction is the way an entity faces.
type Direction uint8

const (
	DirectionDown Direction = iota
	DirectionUp
	DirectionLeft
	DirectionRight
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	default:
		return "unknown"
	}
}

// Vector returns the unit vector the direction points along.
func (d Direction) Vector() kinematic.Vector {
	switch d {
	case DirectionUp:
		return kinematic.Vector{Y: -1}
	case DirectionLeft:
		return kinematic.Vector{X: -1}
	case DirectionRight:
		return kinematic.Vector{X: 1}
	default:
		return kinematic.Vector{Y: 1}
	}
}

// FacingFor returns the facing that best matches a movement vector.
// The horizontal axis wins ties. The zero vector keeps the current facing.
func FacingFor(v kinematic.Vector, current Direction) Direction {
	if v.IsZero() {
		return current
	}
	if math.Abs(v.X) >= math.Abs(v.Y) {
		if v.X > 0 {
			return DirectionRight
		}
		return DirectionLeft
	}
	if v.Y > 0 {
		return DirectionDown
	}
	return DirectionUp
}

// Body is the shared shape of every moving entity: a rectangle, a speed in pixels per second,
// and a facing.
type Body struct {
	Rect   kinematic.Rect
	Speed  float64
	Facing Direction
}

// Center returns the center of the body's rectangle.
func (b *Body) Center() kinematic.Vector {
	return b.Rect.Center()
}

// MoveBy moves the body along dir at its own speed for dtMs milliseconds.
func MoveBy(b *Body, dir kinematic.Vector, dtMs float64, q collisions.Occupier) {
	MoveAt(b, dir, b.Speed, dtMs, q)
}

// MoveAt moves the body along dir at speed pixels per second for dtMs milliseconds.
// The axes are resolved separately, X against (newX, oldY) and then Y against (resolvedX, newY),
// so a body blocked on one axis still slides along the other.
// It returns the displacement actually applied.
func MoveAt(b *Body, dir kinematic.Vector, speed, dtMs float64, q collisions.Occupier) kinematic.Vector {
	unit := dir.Normalize()
	if unit.IsZero() {
		return kinematic.Vector{}
	}
	distance := speed * dtMs / 1000
	dx := unit.X * distance
	dy := unit.Y * distance
	b.Facing = FacingFor(unit, b.Facing)

	start := b.Rect.Position()
	if dx != 0 {
		if candidate := b.Rect.At(b.Rect.X+dx, b.Rect.Y); q.CanOccupy(candidate) {
			b.Rect = candidate
		}
	}
	if dy != 0 {
		if candidate := b.Rect.At(b.Rect.X, b.Rect.Y+dy); q.CanOccupy(candidate) {
			b.Rect = candidate
		}
	}
	return b.Rect.Position().Sub(start)
}

// MoveToward moves the body toward a point at speed, never overshooting it.
// It returns the remaining distance to the point.
func MoveToward(b *Body, target kinematic.Vector, speed, dtMs float64, q collisions.Occupier) float64 {
	c := b.Center()
	heading := kinematic.Direction(c.X, c.Y, target.X, target.Y)
	if heading.Distance == 0 {
		return 0
	}
	step := speed * dtMs / 1000
	if step > heading.Distance {
		speed = heading.Distance * 1000 / dtMs
	}
	MoveAt(b, heading.Unit(), speed, dtMs, q)
	c = b.Center()
	return math.Hypot(target.X-c.X, target.Y-c.Y)
}

// ApplyKnockback integrates a knockback velocity in pixels per second over dtMs milliseconds,
// axis by axis like MoveAt. A blocked axis bounces: its velocity is inverted and halved.
// Damping and expiry are the caller's concern; see Knockback.
func ApplyKnockback(b *Body, vx, vy, dtMs float64, q collisions.Occupier) (float64, float64) {
	dt := dtMs / 1000
	if dx := vx * dt; dx != 0 {
		if candidate := b.Rect.At(b.Rect.X+dx, b.Rect.Y); q.CanOccupy(candidate) {
			b.Rect = candidate
		} else {
			vx *= -0.5
		}
	}
	if dy := vy * dt; dy != 0 {
		if candidate := b.Rect.At(b.Rect.X, b.Rect.Y+dy); q.CanOccupy(candidate) {
			b.Rect = candidate
		} else {
			vy *= -0.5
		}
	}
	return vx, vy
}

// ClampToBounds keeps the body inside the map's pixel bounds.
func ClampToBounds(b *Body, dims tilemap.Dimensions) {
	b.Rect.X = kinematic.Clamp(b.Rect.X, 0, float64(dims.PixelWidth)-b.Rect.W)
	b.Rect.Y = kinematic.Clamp(b.Rect.Y, 0, float64(dims.PixelHeight)-b.Rect.H)
}
