package types

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cbodonnell/tileworld/pkg/collisions"
	"github.com/cbodonnell/tileworld/pkg/game/constants"
	"github.com/cbodonnell/tileworld/pkg/kinematic"
	"github.com/cbodonnell/tileworld/pkg/movement"
	"github.com/cbodonnell/tileworld/pkg/tilemap"
	"github.com/google/uuid"
	"github.com/solarlune/resolv"
)

type EnemyKind string

const (
	EnemyKindGoblin EnemyKind = "goblin"
	EnemyKindOrc    EnemyKind = "orc"
	EnemyKindWolf   EnemyKind = "wolf"
	EnemyKindBandit EnemyKind = "bandit"
)

// EnemyKinds lists the spawnable kinds in rotation order.
var EnemyKinds = []EnemyKind{EnemyKindGoblin, EnemyKindOrc, EnemyKindWolf, EnemyKindBandit}

// EnemyStats are the per-kind base numbers. Speed is in pixels per second.
type EnemyStats struct {
	HP     int
	Damage int
	Speed  float64
	XP     int
}

var enemyStats = map[EnemyKind]EnemyStats{
	EnemyKindGoblin: {HP: 50, Damage: 15, Speed: 90, XP: 25},
	EnemyKindOrc:    {HP: 80, Damage: 20, Speed: 70, XP: 40},
	EnemyKindWolf:   {HP: 35, Damage: 10, Speed: 130, XP: 20},
	EnemyKindBandit: {HP: 60, Damage: 18, Speed: 95, XP: 35},
}

// StatsFor returns the base stats of an enemy kind.
func StatsFor(kind EnemyKind) (EnemyStats, error) {
	stats, ok := enemyStats[kind]
	if !ok {
		return EnemyStats{}, fmt.Errorf("unknown enemy kind: %q", kind)
	}
	return stats, nil
}

// AIState is the enemy behavior state. Dying is tracked separately and overrides both.
type AIState uint8

const (
	AIStatePatrol AIState = iota
	AIStateChase
)

func (s AIState) String() string {
	switch s {
	case AIStatePatrol:
		return "patrol"
	case AIStateChase:
		return "chase"
	default:
		return "unknown"
	}
}

// Enemy is a hostile entity running the patrol/chase state machine.
type Enemy struct {
	ID   string
	Kind EnemyKind
	Body movement.Body

	HP      int
	MaxHP   int
	Damage  int
	XPValue int

	AttackRange    float64
	AttackInterval float64
	attackCooldown float64

	AI             AIState
	AlertRange     float64
	PatrolTarget   *kinematic.Vector
	patrolTimer    float64
	patrolInterval float64

	Knockback movement.Knockback

	DamageFlash      bool
	damageFlashTimer float64

	Dying         bool
	DeathTimer    float64
	DeathDuration float64

	// Object is the enemy's body in the screen's resolv space.
	Object *resolv.Object
}

func NewEnemy(kind EnemyKind, x, y float64, rng *rand.Rand) (*Enemy, error) {
	stats, err := StatsFor(kind)
	if err != nil {
		return nil, err
	}
	e := &Enemy{
		ID:   uuid.NewString(),
		Kind: kind,
		Body: movement.Body{
			Rect:   kinematic.Rect{X: x, Y: y, W: constants.EnemySize, H: constants.EnemySize},
			Speed:  stats.Speed,
			Facing: movement.DirectionDown,
		},
		HP:             stats.HP,
		MaxHP:          stats.HP,
		Damage:         stats.Damage,
		XPValue:        stats.XP,
		AttackRange:    constants.EnemyAttackRange,
		AttackInterval: constants.EnemyAttackCooldown,
		AI:             AIStatePatrol,
		AlertRange:     constants.EnemyAlertRange,
		patrolInterval: patrolInterval(rng),
		Knockback: movement.Knockback{
			Duration:  constants.EnemyKnockbackDuration,
			Damping:   constants.KnockbackDamping,
			StopSpeed: constants.KnockbackStopSpeed,
		},
		DeathDuration: constants.EnemyDeathDuration,
		Object:        resolv.NewObject(x, y, constants.EnemySize, constants.EnemySize, collisions.TagEnemy),
	}
	return e, nil
}

func patrolInterval(rng *rand.Rand) float64 {
	return constants.EnemyPatrolIntervalMin + rng.Float64()*constants.EnemyPatrolIntervalJitter
}

// Rect returns the enemy's bounding box.
func (e *Enemy) Rect() kinematic.Rect {
	return e.Body.Rect
}

// Center returns the center of the enemy's bounding box.
func (e *Enemy) Center() kinematic.Vector {
	return e.Body.Rect.Center()
}

// EnemyAction reports what an enemy did to the player during an update.
type EnemyAction struct {
	Attacked     bool
	KilledPlayer bool
}

// Update runs one tick of the enemy. A dying enemy only advances its death timer; an active
// knockback preempts the AI. Cosmetic timers advance in every case.
func (e *Enemy) Update(dtMs float64, player *Player, q collisions.Occupier, dims tilemap.Dimensions, rng *rand.Rand) EnemyAction {
	e.updateFlash(dtMs)
	if e.Dying {
		e.DeathTimer += dtMs
		return EnemyAction{}
	}

	if e.attackCooldown > 0 {
		e.attackCooldown -= dtMs
	}

	if e.Knockback.Active {
		e.Knockback.Update(&e.Body, dtMs, q)
		movement.ClampToBounds(&e.Body, dims)
		e.syncObject()
		return EnemyAction{}
	}

	var action EnemyAction
	distance := math.Inf(1)
	if player != nil {
		distance = kinematic.DistanceBetween(e.Body.Rect, player.Rect())
	}
	e.think(distance)

	if e.AI == AIStateChase && player != nil {
		if distance > e.AttackRange*constants.EnemyApproachFactor {
			movement.MoveToward(&e.Body, player.Center(), e.Body.Speed, dtMs, q)
		}
		if distance <= e.AttackRange && e.attackCooldown <= 0 {
			c := e.Center()
			action.Attacked = true
			action.KilledPlayer = player.TakeDamage(e.Damage, c.X, c.Y)
			e.attackCooldown = e.AttackInterval
		}
	} else {
		e.patrol(dtMs, q, rng)
	}

	movement.ClampToBounds(&e.Body, dims)
	e.syncObject()
	return action
}

// think applies the patrol/chase transitions for the given center distance to the player.
// An absent player is passed as an infinite distance.
func (e *Enemy) think(distance float64) {
	switch {
	case distance <= e.AlertRange:
		e.AI = AIStateChase
	case math.IsInf(distance, 1) || (e.AI == AIStateChase && distance > e.AlertRange*constants.EnemyGiveUpFactor):
		if e.AI == AIStateChase {
			e.PatrolTarget = nil
		}
		e.AI = AIStatePatrol
	}
}

func (e *Enemy) patrol(dtMs float64, q collisions.Occupier, rng *rand.Rand) {
	e.patrolTimer += dtMs
	if e.PatrolTarget == nil || e.patrolTimer >= e.patrolInterval {
		angle := rng.Float64() * 2 * math.Pi
		c := e.Center()
		e.PatrolTarget = &kinematic.Vector{
			X: c.X + math.Cos(angle)*constants.EnemyPatrolRadius,
			Y: c.Y + math.Sin(angle)*constants.EnemyPatrolRadius,
		}
		e.patrolTimer = 0
		e.patrolInterval = patrolInterval(rng)
	}

	speed := e.Body.Speed * constants.EnemyPatrolSpeedFactor
	if remaining := movement.MoveToward(&e.Body, *e.PatrolTarget, speed, dtMs, q); remaining < 1 {
		e.PatrolTarget = nil
	}
}

func (e *Enemy) updateFlash(dtMs float64) {
	if !e.DamageFlash {
		return
	}
	e.damageFlashTimer += dtMs
	if e.damageFlashTimer >= constants.EnemyDamageFlashDuration {
		e.DamageFlash = false
		e.damageFlashTimer = 0
	}
}

func (e *Enemy) syncObject() {
	if e.Object == nil {
		return
	}
	e.Object.Position.X = e.Body.Rect.X
	e.Object.Position.Y = e.Body.Rect.Y
	e.Object.Update()
}

// TakeDamage applies a hit from an attacker at (fromX, fromY) and knocks the enemy away from it.
// hp is clamped at zero, at which point the enemy starts dying. Dying enemies ignore hits.
// It reports whether this hit killed the enemy.
func (e *Enemy) TakeDamage(amount int, fromX, fromY float64) bool {
	if e.Dying {
		return false
	}
	e.HP -= amount
	e.DamageFlash = true
	e.damageFlashTimer = 0

	c := e.Center()
	if away := kinematic.Direction(fromX, fromY, c.X, c.Y); away.Distance > 0 {
		e.Knockback.Start(away.Unit(), constants.EnemyKnockbackSpeed)
	}

	if e.HP <= 0 {
		e.HP = 0
		e.Dying = true
		e.DeathTimer = 0
		e.Knockback.Stop()
		return true
	}
	return false
}

// Removable reports whether the death animation has finished.
func (e *Enemy) Removable() bool {
	return e.Dying && e.DeathTimer >= e.DeathDuration
}
