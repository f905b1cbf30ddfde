package game

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/cbodonnell/tileworld/pkg/collisions"
	"github.com/cbodonnell/tileworld/pkg/config"
	"github.com/cbodonnell/tileworld/pkg/game/types"
	"github.com/cbodonnell/tileworld/pkg/kinematic"
	"github.com/cbodonnell/tileworld/pkg/tilemap"
	"github.com/solarlune/resolv"
)

var ErrUnknownScreen = errors.New("unknown screen")

// arrivalBandTiles is the depth of the strip searched for a clear arrival point when the
// straight-across position is blocked.
const arrivalBandTiles = 4

// Screen is one tile map region with its own collision grid, entity space and enemies.
type Screen struct {
	Name           string
	Map            *tilemap.TileMap
	Query          *collisions.ScreenQuery
	Space          *resolv.Space
	Landmarks      types.Landmarks
	AmbientLines   []string
	ArrivalMessage string
	SpawnZones     []collisions.Zone
	Enemies        []*types.Enemy
}

func NewScreen(cfg config.ScreenConfig, m *tilemap.TileMap) *Screen {
	landmarks := make(types.Landmarks, len(cfg.Landmarks))
	for name, pos := range cfg.Landmarks {
		landmarks[name] = pos
	}
	return &Screen{
		Name:           cfg.Name,
		Map:            m,
		Query:          collisions.NewScreenQuery(m),
		Space:          collisions.NewCollisionSpace(m.Dimensions()),
		Landmarks:      landmarks,
		AmbientLines:   cfg.Ambient,
		ArrivalMessage: cfg.ArrivalMessage,
		SpawnZones:     cfg.SpawnZones,
	}
}

func (s *Screen) Dimensions() tilemap.Dimensions {
	return s.Map.Dimensions()
}

// Zones returns the configured spawn zones, or the default central-outward zones.
func (s *Screen) Zones() []collisions.Zone {
	if len(s.SpawnZones) > 0 {
		return s.SpawnZones
	}
	dims := s.Dimensions()
	return collisions.DefaultZones(dims.WidthTiles, dims.HeightTiles)
}

// AddEnemy places an enemy on the screen and in its collision space.
func (s *Screen) AddEnemy(e *types.Enemy) {
	s.Enemies = append(s.Enemies, e)
	if e.Object != nil {
		s.Space.Add(e.Object)
	}
}

// RemoveEnemy drops the enemy at index i. Callers iterating Enemies must walk it in reverse.
func (s *Screen) RemoveEnemy(i int) *types.Enemy {
	e := s.Enemies[i]
	if e.Object != nil {
		s.Space.Remove(e.Object)
	}
	s.Enemies = append(s.Enemies[:i], s.Enemies[i+1:]...)
	return e
}

// Transition links an edge of one screen to another screen.
type Transition struct {
	From string
	To   string
	Edge string
}

// ScreenManager owns every screen and tracks which one is simulated.
type ScreenManager struct {
	screens     map[string]*Screen
	order       []string
	active      string
	transitions map[string][]Transition
	query       *collisions.Query
}

func NewScreenManager() *ScreenManager {
	return &ScreenManager{
		screens:     make(map[string]*Screen),
		transitions: make(map[string][]Transition),
		query:       collisions.NewQuery(),
	}
}

// AddScreen registers a screen. The first screen added becomes active.
func (sm *ScreenManager) AddScreen(s *Screen) {
	if _, ok := sm.screens[s.Name]; !ok {
		sm.order = append(sm.order, s.Name)
	}
	sm.screens[s.Name] = s
	sm.query.Register(s.Name, s.Map)
	if sm.active == "" {
		sm.active = s.Name
	}
}

// AddTransition links the edge of one screen to another. Both screens must already be registered.
func (sm *ScreenManager) AddTransition(t Transition) error {
	if _, ok := sm.screens[t.From]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScreen, t.From)
	}
	if _, ok := sm.screens[t.To]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScreen, t.To)
	}
	sm.transitions[t.From] = append(sm.transitions[t.From], t)
	return nil
}

func (sm *ScreenManager) Screen(name string) (*Screen, bool) {
	s, ok := sm.screens[name]
	return s, ok
}

// Active returns the screen being simulated.
func (sm *ScreenManager) Active() *Screen {
	return sm.screens[sm.active]
}

func (sm *ScreenManager) SetActive(name string) error {
	if _, ok := sm.screens[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScreen, name)
	}
	sm.active = name
	return nil
}

// Names returns screen names in registration order.
func (sm *ScreenManager) Names() []string {
	names := make([]string, len(sm.order))
	copy(names, sm.order)
	return names
}

// Query answers collision questions for any registered screen by name.
func (sm *ScreenManager) Query() *collisions.Query {
	return sm.query
}

// CheckTransition reports the transition whose trigger band r has entered on the active screen.
// Each band is one tile deep along its edge.
func (sm *ScreenManager) CheckTransition(r kinematic.Rect) (Transition, bool) {
	s := sm.Active()
	if s == nil {
		return Transition{}, false
	}
	dims := s.Dimensions()
	tileW, tileH := float64(dims.TileWidth), float64(dims.TileHeight)
	for _, t := range sm.transitions[s.Name] {
		var hit bool
		switch t.Edge {
		case config.EdgeNorth:
			hit = r.Y < tileH
		case config.EdgeSouth:
			hit = r.Y+r.H > float64(dims.PixelHeight)-tileH
		case config.EdgeWest:
			hit = r.X < tileW
		case config.EdgeEast:
			hit = r.X+r.W > float64(dims.PixelWidth)-tileW
		}
		if hit {
			return t, true
		}
	}
	return Transition{}, false
}

// ArrivalPosition places r on the destination of t just inside the edge opposite the one it
// left through, clear of that edge's trigger band. The coordinate along the edge is kept.
// When that spot is blocked a strip along the arrival edge is searched, then the whole screen.
func (sm *ScreenManager) ArrivalPosition(t Transition, r kinematic.Rect, rng *rand.Rand) kinematic.Vector {
	dest, ok := sm.screens[t.To]
	if !ok {
		return kinematic.Vector{X: r.X, Y: r.Y}
	}
	dims := dest.Dimensions()
	tileW, tileH := float64(dims.TileWidth), float64(dims.TileHeight)
	gapX, gapY := tileW/4, tileH/4
	// the kept coordinate stays out of the side bands too
	maxX := math.Max(tileW, float64(dims.PixelWidth)-tileW-r.W)
	maxY := math.Max(tileH, float64(dims.PixelHeight)-tileH-r.H)

	pos := kinematic.Vector{X: kinematic.Clamp(r.X, tileW, maxX), Y: kinematic.Clamp(r.Y, tileH, maxY)}
	switch t.Edge {
	case config.EdgeNorth:
		pos.Y = float64(dims.PixelHeight) - tileH - gapY - r.H
	case config.EdgeSouth:
		pos.Y = tileH + gapY
	case config.EdgeWest:
		pos.X = float64(dims.PixelWidth) - tileW - gapX - r.W
	case config.EdgeEast:
		pos.X = tileW + gapX
	}

	if dest.Query.CanOccupy(r.At(pos.X, pos.Y)) {
		return pos
	}
	zones := arrivalZones(t.Edge, dims.WidthTiles, dims.HeightTiles)
	res := dest.Query.FindSafeSpawn(r.W, r.H, collisions.SpawnOptions{Zones: zones, Rand: rng})
	return res.Position
}

// arrivalZones lists the search zones for an arrival through edge: a strip along the arrival
// edge, then the default zones. Every zone stays one tile inside the map so an arrival never
// lands in a trigger band.
func arrivalZones(edge string, w, h int) []collisions.Zone {
	var band collisions.Zone
	switch edge {
	case config.EdgeNorth:
		band = collisions.Zone{MinX: 1, MinY: h - 1 - arrivalBandTiles, MaxX: w - 1, MaxY: h - 1}
	case config.EdgeSouth:
		band = collisions.Zone{MinX: 1, MinY: 1, MaxX: w - 1, MaxY: 1 + arrivalBandTiles}
	case config.EdgeWest:
		band = collisions.Zone{MinX: w - 1 - arrivalBandTiles, MinY: 1, MaxX: w - 1, MaxY: h - 1}
	case config.EdgeEast:
		band = collisions.Zone{MinX: 1, MinY: 1, MaxX: 1 + arrivalBandTiles, MaxY: h - 1}
	}
	zones := []collisions.Zone{band}
	for _, z := range collisions.DefaultZones(w, h) {
		z.MinX = max(z.MinX, 1)
		z.MinY = max(z.MinY, 1)
		z.MaxX = min(z.MaxX, w-1)
		z.MaxY = min(z.MaxY, h-1)
		zones = append(zones, z)
	}
	return zones
}
