package collisions

import (
	"math/rand"
	"testing"

	"github.com/cbodonnell/tileworld/pkg/kinematic"
	"github.com/cbodonnell/tileworld/pkg/tilemap"
	"github.com/solarlune/resolv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groundOnly(t *testing.T, w, h int) *tilemap.TileMap {
	t.Helper()
	return withBuildings(t, w, h, nil)
}

func withBuildings(t *testing.T, w, h int, solid [][2]int) *tilemap.TileMap {
	t.Helper()
	ground := make([]uint32, w*h)
	buildings := make([]uint32, w*h)
	for i := range ground {
		ground[i] = 17
	}
	for _, s := range solid {
		buildings[s[1]*w+s[0]] = 600
	}
	m, err := tilemap.New("test", w, h, 32, 32, []tilemap.Layer{
		{Name: tilemap.GroundLayer, Data: ground},
		{Name: "buildings", Data: buildings},
	}, nil, tilemap.DefaultRules())
	require.NoError(t, err)
	return m
}

func TestCanOccupy(t *testing.T) {
	m := withBuildings(t, 10, 10, [][2]int{{5, 5}})
	tests := []struct {
		name string
		rect kinematic.Rect
		want bool
	}{
		{name: "clear region", rect: kinematic.Rect{X: 32, Y: 32, W: 24, H: 24}, want: true},
		{name: "exactly one tile", rect: kinematic.Rect{X: 0, Y: 0, W: 32, H: 32}, want: true},
		{name: "over a solid tile", rect: kinematic.Rect{X: 150, Y: 150, W: 24, H: 24}, want: false},
		{name: "corner in a solid tile", rect: kinematic.Rect{X: 140, Y: 140, W: 24, H: 24}, want: false},
		{name: "flush against a solid tile", rect: kinematic.Rect{X: 136, Y: 160, W: 24, H: 24}, want: true},
		{name: "partly off the left edge", rect: kinematic.Rect{X: -1, Y: 32, W: 24, H: 24}, want: false},
		{name: "partly off the bottom edge", rect: kinematic.Rect{X: 32, Y: 300, W: 24, H: 24}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanOccupy(m, tt.rect))
		})
	}
}

func TestQuery_UnknownScreen(t *testing.T) {
	q := NewQuery()
	q.Register("town", groundOnly(t, 10, 10))

	r := kinematic.Rect{X: 32, Y: 32, W: 24, H: 24}
	assert.True(t, q.CanOccupy("town", r))
	assert.True(t, q.ForScreen("town").CanOccupy(r))
	assert.False(t, q.CanOccupy("nowhere", r))
	assert.False(t, q.ForScreen("nowhere").CanOccupy(r))

	res := q.FindSafeSpawn("nowhere", 24, 24, SpawnOptions{})
	assert.True(t, res.Fallback)
}

func TestFindSafeSpawn_OpenMapFirstAttempt(t *testing.T) {
	m := groundOnly(t, 25, 25)

	res := FindSafeSpawn(m, 24, 24, SpawnOptions{Rand: rand.New(rand.NewSource(1))})

	assert.False(t, res.Fallback)
	assert.NoError(t, res.Err)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 0, res.Zone)
	central := DefaultZones(25, 25)[0]
	assert.GreaterOrEqual(t, res.Position.X, float64(central.MinX*32))
	assert.Less(t, res.Position.X, float64(central.MaxX*32))
	assert.True(t, CanOccupy(m, kinematic.Rect{X: res.Position.X, Y: res.Position.Y, W: 24, H: 24}))
}

func TestFindSafeSpawn_Fallback(t *testing.T) {
	var all [][2]int
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			all = append(all, [2]int{x, y})
		}
	}
	m := withBuildings(t, 10, 10, all)

	res := FindSafeSpawn(m, 24, 24, SpawnOptions{Rand: rand.New(rand.NewSource(1))})

	assert.True(t, res.Fallback)
	assert.ErrorIs(t, res.Err, ErrNoSafeSpawn)
	assert.Equal(t, -1, res.Zone)
	assert.Equal(t, kinematic.Vector{X: 64, Y: 64}, res.Position)
	assert.Equal(t, 3*AttemptsPerZone, res.Attempts)
}

func TestFindSafeSpawn_Footprint(t *testing.T) {
	// a single free column is too narrow for a two-tile-wide entity
	var solid [][2]int
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			if x != 2 {
				solid = append(solid, [2]int{x, y})
			}
		}
	}
	m := withBuildings(t, 6, 6, solid)
	opts := SpawnOptions{Rand: rand.New(rand.NewSource(3))}

	narrow := FindSafeSpawn(m, 20, 20, opts)
	assert.False(t, narrow.Fallback)
	assert.Equal(t, 64.0, narrow.Position.X)

	wide := FindSafeSpawn(m, 40, 20, opts)
	assert.True(t, wide.Fallback)
}

func TestFindSafeSpawn_Exclusion(t *testing.T) {
	m := groundOnly(t, 25, 25)
	exclude := kinematic.Vector{X: 400, Y: 400}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 20; i++ {
		res := FindSafeSpawn(m, 24, 24, SpawnOptions{Exclude: &exclude, MinSeparation: 150, Rand: rng})
		require.False(t, res.Fallback)
		center := kinematic.Vector{X: res.Position.X + 16, Y: res.Position.Y + 16}
		assert.GreaterOrEqual(t, center.Sub(exclude).Length(), 150.0)
	}
}

func TestNewCollisionSpace(t *testing.T) {
	m := groundOnly(t, 25, 20)
	space := NewCollisionSpace(m.Dimensions())

	a := resolv.NewObject(100, 100, 24, 24, TagEnemy)
	b := resolv.NewObject(110, 110, 24, 24, TagAttack)
	c := resolv.NewObject(600, 500, 24, 24, TagEnemy)
	space.Add(a, b, c)

	assert.True(t, b.SharesCells(a))
	assert.False(t, b.SharesCells(c))
}
