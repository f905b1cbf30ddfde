package types

import (
	"math/rand"
	"testing"

	"github.com/cbodonnell/tileworld/pkg/game/constants"
	"github.com/cbodonnell/tileworld/pkg/kinematic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnemy(t *testing.T, x, y float64) *Enemy {
	t.Helper()
	e, err := NewEnemy(EnemyKindGoblin, x, y, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return e
}

// placePlayer puts the player so that its center is distance pixels to the right of the enemy's center.
func placePlayer(p *Player, e *Enemy, distance float64) {
	c := e.Center()
	p.Body.Rect = p.Body.Rect.At(c.X+distance-p.Body.Rect.W/2, c.Y-p.Body.Rect.H/2)
}

func TestNewEnemy(t *testing.T) {
	for _, kind := range EnemyKinds {
		e, err := NewEnemy(kind, 0, 0, rand.New(rand.NewSource(1)))
		require.NoError(t, err)
		assert.Equal(t, e.MaxHP, e.HP)
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, AIStatePatrol, e.AI)
	}
	_, err := NewEnemy("dragon", 0, 0, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestEnemy_AlertHysteresis(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	e := newTestEnemy(t, 300, 300)
	p := NewPlayer("Player", 0, 0)

	placePlayer(p, e, e.AlertRange+1)
	e.Update(16, p, openSpace{}, testDims, rng)
	assert.Equal(t, AIStatePatrol, e.AI, "outside alert range stays on patrol")

	placePlayer(p, e, e.AlertRange-1)
	e.Update(16, p, openSpace{}, testDims, rng)
	assert.Equal(t, AIStateChase, e.AI)

	placePlayer(p, e, e.AlertRange*1.2)
	e.Update(16, p, openSpace{}, testDims, rng)
	assert.Equal(t, AIStateChase, e.AI, "inside the hysteresis band keeps chasing")

	placePlayer(p, e, e.AlertRange*constants.EnemyGiveUpFactor+1)
	e.Update(16, p, openSpace{}, testDims, rng)
	assert.Equal(t, AIStatePatrol, e.AI)
}

func TestEnemy_NoPlayerPatrols(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	e := newTestEnemy(t, 300, 300)
	e.AI = AIStateChase

	start := e.Body.Rect
	for i := 0; i < 60; i++ {
		e.Update(16, nil, openSpace{}, testDims, rng)
	}
	assert.Equal(t, AIStatePatrol, e.AI)
	assert.NotEqual(t, start, e.Body.Rect, "patrolling enemies move")
}

func TestEnemy_ChaseMovesAndAttacks(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	e := newTestEnemy(t, 300, 300)
	p := NewPlayer("Player", 0, 0)

	// in attack range but farther than the approach distance: both checks fire in one tick
	placePlayer(p, e, e.AttackRange*0.9)
	before := e.Center()
	action := e.Update(16, p, openSpace{}, testDims, rng)

	assert.True(t, action.Attacked)
	assert.Greater(t, e.Center().X, before.X)
	assert.Equal(t, constants.PlayerHitpoints-e.Damage, p.HP)

	// cooldown blocks a second attack
	p.Invulnerable = false
	action = e.Update(16, p, openSpace{}, testDims, rng)
	assert.False(t, action.Attacked)
}

func TestEnemy_TakeDamageAndDeath(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	e := newTestEnemy(t, 300, 300)
	require.Equal(t, 50, e.HP)

	killed := e.TakeDamage(60, 0, 0)
	assert.True(t, killed)
	assert.Equal(t, 0, e.HP)
	assert.True(t, e.Dying)
	assert.False(t, e.Removable())

	assert.False(t, e.TakeDamage(10, 0, 0), "dying enemies ignore hits")

	for e.DeathTimer < e.DeathDuration-16 {
		e.Update(16, nil, openSpace{}, testDims, rng)
		assert.False(t, e.Removable())
	}
	e.Update(16, nil, openSpace{}, testDims, rng)
	assert.True(t, e.Removable())
}

func TestEnemy_KnockbackPreemptsAI(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	e := newTestEnemy(t, 300, 300)
	p := NewPlayer("Player", 0, 0)
	placePlayer(p, e, e.AttackRange*0.5)

	c := e.Center()
	e.TakeDamage(10, c.X+10, c.Y)
	require.True(t, e.Knockback.Active)

	before := e.Center()
	action := e.Update(16, p, openSpace{}, testDims, rng)
	assert.False(t, action.Attacked, "no attack while knocked back")
	assert.Less(t, e.Center().X, before.X, "pushed away from the attacker")
	assert.True(t, e.DamageFlash)
}

func TestEnemy_FlashAdvancesWhileDying(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	e := newTestEnemy(t, 300, 300)
	e.TakeDamage(100, 0, 0)
	require.True(t, e.DamageFlash)

	for i := 0; i < 10; i++ {
		e.Update(16, nil, openSpace{}, testDims, rng)
	}
	assert.False(t, e.DamageFlash)
}

func TestEnemy_ObjectFollowsBody(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	e := newTestEnemy(t, 300, 300)
	for i := 0; i < 30; i++ {
		e.Update(16, nil, openSpace{}, testDims, rng)
	}
	assert.Equal(t, kinematic.Vector{X: e.Body.Rect.X, Y: e.Body.Rect.Y}, kinematic.Vector{X: e.Object.Position.X, Y: e.Object.Position.Y})
}
