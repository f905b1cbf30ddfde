package movement

import (
	"github.com/cbodonnell/tileworld/pkg/collisions"
	"github.com/cbodonnell/tileworld/pkg/kinematic"
)

// Knockback is a time-boxed push applied on top of normal movement.
// Velocity is in pixels per second and decays exponentially at Damping per second.
type Knockback struct {
	Active   bool
	Velocity kinematic.Vector
	// Timer counts elapsed milliseconds since the knockback started.
	Timer    float64
	Duration float64
	Damping  float64
	// StopSpeed ends the knockback once the speed falls below it.
	StopSpeed float64
}

// Start begins a knockback pushing along dir at speed pixels per second.
func (k *Knockback) Start(dir kinematic.Vector, speed float64) {
	k.Active = true
	k.Velocity = dir.Normalize().Scale(speed)
	k.Timer = 0
}

// Stop clears the knockback.
func (k *Knockback) Stop() {
	k.Active = false
	k.Velocity = kinematic.Vector{}
	k.Timer = 0
}

// Update moves the body by the knockback for dtMs milliseconds, then applies damping.
// The knockback ends when its duration elapses or its speed drops under StopSpeed,
// whichever happens first. It reports whether the knockback is still active.
func (k *Knockback) Update(b *Body, dtMs float64, q collisions.Occupier) bool {
	if !k.Active {
		return false
	}
	vx, vy := ApplyKnockback(b, k.Velocity.X, k.Velocity.Y, dtMs, q)
	k.Velocity = kinematic.Vector{
		X: kinematic.Decay(vx, k.Damping, dtMs/1000),
		Y: kinematic.Decay(vy, k.Damping, dtMs/1000),
	}
	k.Timer += dtMs
	if k.Timer >= k.Duration || k.Velocity.Length() < k.StopSpeed {
		k.Stop()
	}
	return k.Active
}
