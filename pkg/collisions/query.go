package collisions

import (
	"github.com/cbodonnell/tileworld/pkg/kinematic"
	"github.com/cbodonnell/tileworld/pkg/tilemap"
)

// Grid is the read side of a tile map that collision queries need.
// *tilemap.TileMap implements it.
type Grid interface {
	IsSolid(tx, ty int) bool
	IsSolidAtPixel(x, y float64) bool
	Dimensions() tilemap.Dimensions
}

// Occupier decides whether a rectangle may be placed on a screen.
type Occupier interface {
	CanOccupy(r kinematic.Rect) bool
}

// CanOccupy tests the four corners and the center of r against the grid, and requires r
// to lie fully inside the grid's pixel bounds. It is a sampled check, not a swept one:
// thin diagonal gaps may be reported as blocked.
func CanOccupy(g Grid, r kinematic.Rect) bool {
	dims := g.Dimensions()
	if !dims.InBounds(r.X, r.Y, r.W, r.H) {
		return false
	}

	// the far edges are exclusive so a rect flush against a tile boundary does not sample the next tile
	right := r.X + r.W - edgeEpsilon
	bottom := r.Y + r.H - edgeEpsilon
	if right < r.X {
		right = r.X
	}
	if bottom < r.Y {
		bottom = r.Y
	}
	center := r.Center()
	points := [5]kinematic.Vector{
		{X: r.X, Y: r.Y},
		{X: right, Y: r.Y},
		{X: r.X, Y: bottom},
		{X: right, Y: bottom},
		center,
	}
	for _, p := range points {
		if g.IsSolidAtPixel(p.X, p.Y) {
			return false
		}
	}
	return true
}

const edgeEpsilon = 1e-6

// ScreenQuery binds collision queries to one screen's grid.
type ScreenQuery struct {
	grid Grid
}

// NewScreenQuery returns a query over a single grid.
func NewScreenQuery(g Grid) *ScreenQuery {
	return &ScreenQuery{grid: g}
}

func (q *ScreenQuery) CanOccupy(r kinematic.Rect) bool {
	return CanOccupy(q.grid, r)
}

func (q *ScreenQuery) Dimensions() tilemap.Dimensions {
	return q.grid.Dimensions()
}

// FindSafeSpawn searches this screen for a clear spawn point.
func (q *ScreenQuery) FindSafeSpawn(w, h float64, opts SpawnOptions) SpawnResult {
	return FindSafeSpawn(q.grid, w, h, opts)
}

// blocked is an Occupier that rejects everything. Queries against an unknown screen use it.
type blocked struct{}

func (blocked) CanOccupy(kinematic.Rect) bool { return false }

// Query answers collision questions by screen name.
type Query struct {
	grids map[string]Grid
}

func NewQuery() *Query {
	return &Query{
		grids: make(map[string]Grid),
	}
}

// Register adds or replaces the grid for a screen.
func (q *Query) Register(screen string, g Grid) {
	q.grids[screen] = g
}

// Grid returns the grid registered for a screen.
func (q *Query) Grid(screen string) (Grid, bool) {
	g, ok := q.grids[screen]
	return g, ok
}

// CanOccupy reports whether r fits on the named screen. Unknown screens reject every rectangle.
func (q *Query) CanOccupy(screen string, r kinematic.Rect) bool {
	g, ok := q.grids[screen]
	if !ok {
		return false
	}
	return CanOccupy(g, r)
}

// ForScreen returns an Occupier bound to the named screen.
func (q *Query) ForScreen(screen string) Occupier {
	g, ok := q.grids[screen]
	if !ok {
		return blocked{}
	}
	return NewScreenQuery(g)
}

// FindSafeSpawn searches the named screen for a clear spawn point.
// Unknown screens yield the fallback point.
func (q *Query) FindSafeSpawn(screen string, w, h float64, opts SpawnOptions) SpawnResult {
	g, ok := q.grids[screen]
	if !ok {
		return fallbackResult(tilemap.FallbackTileSize, 0)
	}
	return FindSafeSpawn(g, w, h, opts)
}
