package types

import (
	"math"

	"github.com/cbodonnell/tileworld/pkg/collisions"
	"github.com/cbodonnell/tileworld/pkg/game/constants"
	"github.com/cbodonnell/tileworld/pkg/kinematic"
	"github.com/cbodonnell/tileworld/pkg/movement"
	"github.com/cbodonnell/tileworld/pkg/tilemap"
)

// Player is the user-controlled character in adventure mode.
type Player struct {
	Name string
	Body movement.Body

	HP           int
	MaxHP        int
	Level        int
	XP           int
	XPToNext     int
	AttackDamage int
	AttackRange  float64

	Attacking      bool
	attackTimer    float64
	attackCooldown float64

	Invulnerable         bool
	invulnerabilityTimer float64

	DamageFlash      bool
	damageFlashTimer float64

	Knockback movement.Knockback
}

func NewPlayer(name string, x, y float64) *Player {
	return &Player{
		Name: name,
		Body: movement.Body{
			Rect:   kinematic.Rect{X: x, Y: y, W: constants.PlayerSize, H: constants.PlayerSize},
			Speed:  constants.PlayerSpeed,
			Facing: movement.DirectionDown,
		},
		HP:           constants.PlayerHitpoints,
		MaxHP:        constants.PlayerHitpoints,
		Level:        1,
		XPToNext:     constants.PlayerStartingXPToNext,
		AttackDamage: constants.PlayerAttackDamage,
		AttackRange:  constants.PlayerAttackRange,
		Knockback: movement.Knockback{
			Duration:  constants.PlayerKnockbackDuration,
			Damping:   constants.KnockbackDamping,
			StopSpeed: constants.KnockbackStopSpeed,
		},
	}
}

// Rect returns the player's bounding box.
func (p *Player) Rect() kinematic.Rect {
	return p.Body.Rect
}

// Center returns the center of the player's bounding box.
func (p *Player) Center() kinematic.Vector {
	return p.Body.Rect.Center()
}

// Update moves the player for dtMs milliseconds. An active knockback replaces intent movement.
func (p *Player) Update(dtMs float64, intent Intent, q collisions.Occupier, dims tilemap.Dimensions) {
	if p.Knockback.Active {
		p.Knockback.Update(&p.Body, dtMs, q)
	} else if dir := intent.Direction(); !dir.IsZero() {
		movement.MoveBy(&p.Body, dir, dtMs, q)
	}

	if p.attackCooldown > 0 {
		p.attackCooldown -= dtMs
	}
	if p.Attacking {
		p.attackTimer += dtMs
		if p.attackTimer >= constants.PlayerAttackDuration {
			p.Attacking = false
			p.attackTimer = 0
		}
	}
	if p.Invulnerable {
		p.invulnerabilityTimer += dtMs
		if p.invulnerabilityTimer >= constants.PlayerInvulnerabilityDuration {
			p.Invulnerable = false
			p.invulnerabilityTimer = 0
		}
	}
	if p.DamageFlash {
		p.damageFlashTimer += dtMs
		if p.damageFlashTimer >= constants.PlayerDamageFlashDuration {
			p.DamageFlash = false
			p.damageFlashTimer = 0
		}
	}

	movement.ClampToBounds(&p.Body, dims)
}

// CanAttack reports whether the attack cooldown has elapsed and no attack is in progress.
func (p *Player) CanAttack() bool {
	return p.attackCooldown <= 0 && !p.Attacking
}

// StartAttack begins an attack and returns its hitbox. It reports false while on cooldown.
func (p *Player) StartAttack() (kinematic.Rect, bool) {
	if !p.CanAttack() {
		return kinematic.Rect{}, false
	}
	p.Attacking = true
	p.attackTimer = 0
	p.attackCooldown = constants.PlayerAttackCooldown
	return p.AttackHitbox(), true
}

// AttackHitbox returns the square of side AttackRange directly in front of the player.
func (p *Player) AttackHitbox() kinematic.Rect {
	r := p.Body.Rect
	reach := p.AttackRange
	switch p.Body.Facing {
	case movement.DirectionUp:
		return kinematic.Rect{X: r.X + r.W/2 - reach/2, Y: r.Y - reach, W: reach, H: reach}
	case movement.DirectionLeft:
		return kinematic.Rect{X: r.X - reach, Y: r.Y + r.H/2 - reach/2, W: reach, H: reach}
	case movement.DirectionRight:
		return kinematic.Rect{X: r.X + r.W, Y: r.Y + r.H/2 - reach/2, W: reach, H: reach}
	default:
		return kinematic.Rect{X: r.X + r.W/2 - reach/2, Y: r.Y + r.H, W: reach, H: reach}
	}
}

// TakeDamage applies damage from an attacker centered at (fromX, fromY) and pushes the player away.
// Damage is ignored while invulnerable. It reports whether the hit killed the player.
func (p *Player) TakeDamage(amount int, fromX, fromY float64) bool {
	if p.Invulnerable || p.HP <= 0 {
		return false
	}
	p.HP -= amount
	p.Invulnerable = true
	p.invulnerabilityTimer = 0
	p.DamageFlash = true
	p.damageFlashTimer = 0

	c := p.Center()
	if away := kinematic.Direction(fromX, fromY, c.X, c.Y); away.Distance > 0 {
		p.Knockback.Start(away.Unit(), constants.PlayerKnockbackSpeed)
	}

	if p.HP <= 0 {
		p.HP = 0
		return true
	}
	return false
}

// Respawn restores a dead player at (x, y) with full hp.
func (p *Player) Respawn(x, y float64) {
	p.HP = p.MaxHP
	p.Body.Rect = p.Body.Rect.At(x, y)
	p.Invulnerable = false
	p.invulnerabilityTimer = 0
	p.Knockback.Stop()
}

// GainXP adds experience and applies every level-up it pays for. It returns the levels gained.
func (p *Player) GainXP(amount int) int {
	p.XP += amount
	levels := 0
	for p.XPToNext > 0 && p.XP >= p.XPToNext {
		p.Level++
		p.XP -= p.XPToNext
		p.XPToNext = int(math.Floor(float64(p.XPToNext) * constants.LevelUpXPMultiplier))
		p.MaxHP += constants.LevelUpMaxHitpoints
		p.HP = p.MaxHP
		p.AttackDamage += constants.LevelUpAttackDamage
		levels++
	}
	return levels
}
